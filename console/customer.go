package console

import (
	"context"

	"github.com/shopspring/decimal"

	"pizzastore/apperr"
	"pizzastore/catalog"
	"pizzastore/models"
	"pizzastore/orders"
	"pizzastore/policy"
)

// pickLogin lets staff act on another user's records. Customers always get
// their own login.
func (s *Shell) pickLogin(p policy.Principal, what string) (string, error) {
	if !policy.Permits(p.Role, policy.ViewOthers) {
		return p.Login, nil
	}
	login, err := s.prompt("\tEnter the login whose " + what + " to view (blank for yours): ")
	if err != nil {
		return "", err
	}
	if login == "" {
		return p.Login, nil
	}
	return login, nil
}

func (s *Shell) viewProfile(ctx context.Context, p policy.Principal) error {
	login, err := s.pickLogin(p, "profile")
	if err != nil {
		return err
	}
	user, err := s.accounts.Profile(ctx, p, login)
	if err != nil {
		return s.fail(err)
	}
	s.printUser(user)
	return nil
}

func (s *Shell) printUser(u models.User) {
	s.printf("\nUser Profile: [ %s ]\n", u.Login)
	s.printf("|Login: %s\n", u.Login)
	s.printf("|Role: %s\n", u.Role)
	s.printf("|Favorite Items: %s\n", u.FavoriteItems)
	s.printf("|Phone Number: %s\n\n", u.PhoneNum)
}

func (s *Shell) updateProfile(ctx context.Context, p policy.Principal) error {
	s.println("\nUPDATE PROFILE")
	s.println("---------")
	s.println("1. Update Favorite Items")
	s.println("2. Update Phone Number")
	s.println("3. Change Password")
	s.println("9. < EXIT")
	choice, err := s.readChoice()
	if err != nil {
		return err
	}
	switch choice {
	case 1:
		items, err := s.prompt("\tEnter your favorite items: ")
		if err != nil {
			return err
		}
		if err := s.accounts.UpdateFavoriteItems(ctx, p, items); err != nil {
			return s.fail(err)
		}
	case 2:
		phone, err := s.prompt("\tEnter your new phone number: ")
		if err != nil {
			return err
		}
		if err := s.accounts.UpdatePhone(ctx, p, phone); err != nil {
			return s.fail(err)
		}
	case 3:
		current, err := s.prompt("\tEnter your current password: ")
		if err != nil {
			return err
		}
		next, err := s.prompt("\tEnter your new password: ")
		if err != nil {
			return err
		}
		confirm, err := s.prompt("\tConfirm your new password: ")
		if err != nil {
			return err
		}
		if err := s.accounts.ChangePassword(ctx, p, current, next, confirm); err != nil {
			return s.fail(err)
		}
	case 9:
		return nil
	default:
		s.println("Invalid Choice...")
		return nil
	}
	s.printf("\nProfile Updated...\n\n")
	return nil
}

func (s *Shell) viewMenu(ctx context.Context) error {
	s.println("\nPizza Store MENU")
	s.println("---------")
	s.println("1. View Full Menu")
	s.println("2. Search Menu by Type")
	s.println("3. Search Menu by Price")
	s.println("9. < EXIT")
	choice, err := s.readChoice()
	if err != nil {
		return err
	}
	var f catalog.Filter
	switch choice {
	case 1:
	case 2:
		if f.Type, err = s.prompt("\tEnter type (entree, sides, drinks): "); err != nil {
			return err
		}
	case 3:
		line, err := s.prompt("\tEnter the maximum price: ")
		if err != nil {
			return err
		}
		limit, convErr := decimal.NewFromString(line)
		if convErr != nil {
			s.println("Invalid Input...")
			return nil
		}
		f.MaxPrice = &limit
	case 9:
		return nil
	default:
		s.println("Invalid Choice! Please Enter a Valid Choice (1-3)...")
		return nil
	}

	sort, err := s.readSort()
	if err != nil {
		return err
	}
	items, err := s.catalog.ListItems(ctx, f, sort)
	if err != nil {
		return s.fail(err)
	}
	s.println("\nPizza Store Menu")
	s.println("---------")
	if len(items) == 0 {
		s.println("No items match.")
	}
	for _, it := range items {
		s.printf("|Item: %s | Price: $%s|\n\t|Type: %s\n\t|Description: %s\n\t|Ingredients: %s\n\n",
			it.ItemName, it.Price.StringFixed(2), it.TypeOfItem, it.Description, it.Ingredients)
	}
	return nil
}

func (s *Shell) readSort() (catalog.Sort, error) {
	for {
		s.println("---------")
		s.println("1. Sort by Price (High to Low)")
		s.println("2. Sort by Price (Low to High)")
		s.println("3. No Sort")
		choice, err := s.readChoice()
		if err != nil {
			return catalog.SortNone, err
		}
		switch choice {
		case 1:
			return catalog.SortPriceDesc, nil
		case 2:
			return catalog.SortPriceAsc, nil
		case 3:
			return catalog.SortNone, nil
		}
		s.println("Invalid Choice! Please Enter a Valid Choice (1-3)...")
	}
}

func (s *Shell) placeOrder(ctx context.Context, p policy.Principal) error {
	s.println("\nORDER")
	s.println("---------")
	storeID, ok, err := s.promptInt("\tEnter the Store ID you would like to order from: ")
	if err != nil || !ok {
		return err
	}
	store, err := s.catalog.FindStore(ctx, storeID)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			s.printf("\nStore Not Found...\n\n")
			return nil
		}
		return s.fail(err)
	}
	s.printf("Ordering From: %s, %s | StoreID: %d\n", store.Address, store.City, store.StoreID)

	var cart []orders.CartLine
	for {
		item, err := s.promptItem(ctx)
		if err != nil {
			return s.fail(err)
		}
		qty, err := s.promptQuantity()
		if err != nil {
			return err
		}
		cart = append(cart, orders.CartLine{ItemName: item.ItemName, Quantity: qty})
		more, err := s.confirm("Would you like to Order Another Item?")
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	order, err := s.orders.PlaceOrder(ctx, p, storeID, cart)
	if err != nil {
		return s.fail(err)
	}
	s.println("\nYour Order Has Been Placed!")
	s.printf("Order ID: %d\nTotal Price: $%s\n\n", order.OrderID, order.TotalPrice.StringFixed(2))
	return nil
}

// promptItem re-prompts until the name matches a menu item.
func (s *Shell) promptItem(ctx context.Context) (models.Item, error) {
	for {
		name, err := s.prompt("\tEnter the item name: ")
		if err != nil {
			return models.Item{}, err
		}
		item, err := s.catalog.FindItem(ctx, name)
		if err == nil {
			return item, nil
		}
		if apperr.KindOf(err) != apperr.NotFound {
			return models.Item{}, err
		}
		s.printf("\nItem Not Found, Please Try Again...\n\n")
	}
}

func (s *Shell) promptQuantity() (int, error) {
	for {
		qty, ok, err := s.promptInt("\tEnter the quantity: ")
		if err != nil {
			return 0, err
		}
		if ok && qty > 0 {
			return qty, nil
		}
		s.println("Quantity must be a positive number.")
	}
}

func (s *Shell) viewHistory(ctx context.Context, p policy.Principal) error {
	login, err := s.pickLogin(p, "orders")
	if err != nil {
		return err
	}
	list, err := s.orders.History(ctx, p, login)
	if err != nil {
		return s.fail(err)
	}
	if len(list) == 0 {
		s.println("No Order History...")
		return nil
	}
	s.printf("\nOrder History of %s: \n", login)
	for _, o := range list {
		s.printf("| Order ID: %d |\n", o.OrderID)
	}
	s.println()
	return nil
}

func (s *Shell) viewRecent(ctx context.Context, p policy.Principal) error {
	login, err := s.pickLogin(p, "orders")
	if err != nil {
		return err
	}
	list, err := s.orders.Recent(ctx, p, login, orders.DefaultRecentLimit)
	if err != nil {
		return s.fail(err)
	}
	if len(list) == 0 {
		s.println("No Order History...")
		return nil
	}
	s.printf("\nRecent Order History of %s: \n\n", login)
	for _, o := range list {
		s.printf("| Order ID: %d | %s | %s |\n", o.OrderID, o.OrderTimestamp.Local().Format("2006-01-02 15:04"), o.OrderStatus)
	}
	s.println()
	return nil
}

func (s *Shell) viewOrder(ctx context.Context, p policy.Principal) error {
	id, ok, err := s.promptInt("\tEnter the Order ID: ")
	if err != nil || !ok {
		return err
	}
	o, err := s.orders.Detail(ctx, p, id)
	if err != nil {
		return s.fail(err)
	}
	s.printf("\nOrder Information [ %d ]\n", o.OrderID)
	s.printf("| Login: %s\n| Store ID: %d\n| Total Price: $%s\n| Placed: %s\n| Status: %s\n",
		o.Login, o.StoreID, o.TotalPrice.StringFixed(2), o.OrderTimestamp.Local().Format("2006-01-02 15:04"), o.OrderStatus)
	s.println("| Items:")
	for _, l := range o.Lines {
		s.printf("|\t%s x%d\n", l.ItemName, l.Quantity)
	}
	if len(o.History) > 0 {
		s.println("| History:")
		for _, h := range o.History {
			s.printf("|\t%s -> %s by %s %s\n", h.FromStatus, h.ToStatus, h.ChangedBy, h.Note)
		}
	}
	s.println()
	return nil
}

func (s *Shell) viewStores(ctx context.Context) error {
	stores, err := s.catalog.ListStores(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.println("\nStores")
	s.println("---------")
	for _, st := range stores {
		open := "Closed"
		if st.IsOpen {
			open = "Open"
		}
		s.printf("| Store ID: %d | %s, %s, %s | %s | Rating: %.1f |\n", st.StoreID, st.Address, st.City, st.State, open, st.Rating)
	}
	s.println()
	return nil
}
