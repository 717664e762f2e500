package console

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"pizzastore/accounts"
	"pizzastore/catalog"
	"pizzastore/models"
	"pizzastore/policy"
	"pizzastore/statemachine"
)

func (s *Shell) updateOrderStatus(ctx context.Context, p policy.Principal) error {
	if !policy.Permits(p.Role, policy.UpdateOrderStatus) {
		s.println("Unrecognized choice!")
		return nil
	}
	id, ok, err := s.promptInt("\tEnter the Order ID: ")
	if err != nil || !ok {
		return err
	}
	order, err := s.orders.Detail(ctx, p, id)
	if err != nil {
		return s.fail(err)
	}
	s.printf("Current status: %s\n", order.OrderStatus)
	if next := statemachine.ValidTransitionsFor(order.OrderStatus, p.Role); len(next) > 0 {
		names := make([]string, len(next))
		for i, st := range next {
			names[i] = string(st)
		}
		s.printf("Valid next states: %s\n", strings.Join(names, ", "))
	}
	status, err := s.prompt("\tEnter the new status: ")
	if err != nil {
		return err
	}
	note, err := s.prompt("\tEnter a note (optional): ")
	if err != nil {
		return err
	}

	force := false
	if policy.Permits(p.Role, policy.OverrideOrderStatus) {
		if force, err = s.confirm("Override the normal order flow?"); err != nil {
			return err
		}
	}
	if force {
		_, err = s.orders.ForceStatus(ctx, p, id, status, note)
	} else {
		_, err = s.orders.UpdateStatus(ctx, p, id, status, note)
	}
	if err != nil {
		return s.fail(err)
	}
	s.printf("\nOrder Status Updated...\n\n")
	return nil
}

func (s *Shell) updateMenu(ctx context.Context, p policy.Principal) error {
	if !policy.Permits(p.Role, policy.UpdateMenu) {
		s.println("Unrecognized choice!")
		return nil
	}
	s.println("\nUPDATE MENU")
	s.println("---------")
	s.println("1. Add Item")
	s.println("2. Update Item")
	s.println("9. < EXIT")
	choice, err := s.readChoice()
	if err != nil {
		return err
	}
	switch choice {
	case 1:
		return s.addItem(ctx, p)
	case 2:
		return s.editItem(ctx, p)
	case 9:
	default:
		s.println("Invalid Choice...")
	}
	return nil
}

func (s *Shell) addItem(ctx context.Context, p policy.Principal) error {
	var item models.Item
	var err error
	if item.ItemName, err = s.prompt("\tItem name: "); err != nil {
		return err
	}
	if item.TypeOfItem, err = s.prompt("\tType of item: "); err != nil {
		return err
	}
	if item.Ingredients, err = s.prompt("\tIngredients: "); err != nil {
		return err
	}
	if item.Description, err = s.prompt("\tDescription: "); err != nil {
		return err
	}
	price, ok, err := s.promptPrice("\tPrice: ")
	if err != nil || !ok {
		return err
	}
	item.Price = price
	if _, err := s.catalog.AddItem(ctx, p, item); err != nil {
		return s.fail(err)
	}
	s.printf("\nItem Added...\n\n")
	return nil
}

// editItem prompts for each field; a blank answer keeps the current value.
func (s *Shell) editItem(ctx context.Context, p policy.Principal) error {
	name, err := s.prompt("\tName of the item to update: ")
	if err != nil {
		return err
	}
	current, err := s.catalog.FindItem(ctx, name)
	if err != nil {
		return s.fail(err)
	}
	s.println("Leave a field blank to keep its current value.")

	var upd catalog.ItemUpdate
	fields := []struct {
		label string
		dst   **string
	}{
		{"New name [" + current.ItemName + "]: ", &upd.NewName},
		{"Type [" + current.TypeOfItem + "]: ", &upd.TypeOfItem},
		{"Ingredients [" + current.Ingredients + "]: ", &upd.Ingredients},
		{"Description [" + current.Description + "]: ", &upd.Description},
	}
	for _, f := range fields {
		v, err := s.prompt("\t" + f.label)
		if err != nil {
			return err
		}
		if v != "" {
			*f.dst = &v
		}
	}
	line, err := s.prompt("\tPrice [" + current.Price.StringFixed(2) + "]: ")
	if err != nil {
		return err
	}
	if line != "" {
		price, convErr := decimal.NewFromString(line)
		if convErr != nil {
			s.println("Invalid Input...")
			return nil
		}
		upd.Price = &price
	}
	if _, err := s.catalog.UpdateItem(ctx, p, current.ItemName, upd); err != nil {
		return s.fail(err)
	}
	s.printf("\nItem Updated...\n\n")
	return nil
}

func (s *Shell) promptPrice(label string) (decimal.Decimal, bool, error) {
	line, err := s.prompt(label)
	if err != nil {
		return decimal.Zero, false, err
	}
	price, err := decimal.NewFromString(line)
	if err != nil {
		s.println("Invalid Input...")
		return decimal.Zero, false, nil
	}
	return price, true, nil
}

func (s *Shell) updateUser(ctx context.Context, p policy.Principal) error {
	if !policy.Permits(p.Role, policy.UpdateUsers) {
		s.println("Unrecognized choice!")
		return nil
	}
	s.println("\nUPDATE USER")
	s.println("---------")
	s.println("1. List Users")
	s.println("2. Update a User")
	s.println("9. < EXIT")
	choice, err := s.readChoice()
	if err != nil {
		return err
	}
	switch choice {
	case 1:
		role, err := s.prompt("\tFilter by role (blank for all): ")
		if err != nil {
			return err
		}
		users, err := s.accounts.ListUsers(ctx, p, role)
		if err != nil {
			return s.fail(err)
		}
		for _, u := range users {
			s.printf("| %s | %s | %s |\n", u.Login, u.Role, u.PhoneNum)
		}
		s.println()
	case 2:
		return s.editUser(ctx, p)
	case 9:
	default:
		s.println("Invalid Choice...")
	}
	return nil
}

func (s *Shell) editUser(ctx context.Context, p policy.Principal) error {
	login, err := s.prompt("\tLogin of the user to update: ")
	if err != nil {
		return err
	}
	current, err := s.accounts.Profile(ctx, p, login)
	if err != nil {
		return s.fail(err)
	}
	s.println("Leave a field blank to keep its current value.")

	var upd accounts.UserUpdate
	fields := []struct {
		label string
		dst   **string
	}{
		{"New login [" + current.Login + "]: ", &upd.NewLogin},
		{"Role [" + string(current.Role) + "]: ", &upd.Role},
		{"Favorite items [" + current.FavoriteItems + "]: ", &upd.FavoriteItems},
		{"Phone number [" + current.PhoneNum + "]: ", &upd.PhoneNum},
	}
	for _, f := range fields {
		v, err := s.prompt("\t" + f.label)
		if err != nil {
			return err
		}
		if v != "" {
			*f.dst = &v
		}
	}
	updated, err := s.accounts.UpdateUser(ctx, p, current.Login, upd)
	if err != nil {
		return s.fail(err)
	}
	if current.Login == s.login {
		s.login = updated.Login
	}
	s.printf("\nUser Updated...\n\n")
	return nil
}
