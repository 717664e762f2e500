// Package console is the interactive numbered-menu front end. It reads from
// any io.Reader and writes to any io.Writer so sessions can be scripted.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"pizzastore/accounts"
	"pizzastore/apperr"
	"pizzastore/catalog"
	"pizzastore/orders"
	"pizzastore/policy"
)

var errInputClosed = errors.New("console: input closed")

type Shell struct {
	in       io.Reader
	lines    chan inputLine
	done     <-chan struct{}
	cause    func() error
	out      io.Writer
	accounts *accounts.Directory
	catalog  *catalog.Catalog
	orders   *orders.Engine
	log      *zap.Logger

	login string // empty when logged out
}

func New(in io.Reader, out io.Writer, acc *accounts.Directory, cat *catalog.Catalog, ord *orders.Engine, log *zap.Logger) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	return &Shell{
		in:       in,
		out:      out,
		accounts: acc,
		catalog:  cat,
		orders:   ord,
		log:      log,
	}
}

// Run loops over the main menu until the user exits or input ends. Cancelling
// ctx ends the session with ctx.Err(), even mid-prompt.
func (s *Shell) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.done, s.cause = ctx.Done(), ctx.Err
	s.lines = make(chan inputLine)
	go s.scan(ctx)

	s.println("\n*******************************************************")
	s.println("              User Interface")
	s.printf("*******************************************************\n\n")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		if s.login == "" {
			var done bool
			done, err = s.mainMenu(ctx)
			if done {
				s.println("Done\n\nBye !")
				return nil
			}
		} else {
			err = s.userMenu(ctx)
		}
		if errors.Is(err, errInputClosed) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shell) mainMenu(ctx context.Context) (bool, error) {
	s.println("MAIN MENU")
	s.println("---------")
	s.println("1. Create user")
	s.println("2. Log in")
	s.println("9. < EXIT")
	choice, err := s.readChoice()
	if err != nil {
		return false, err
	}
	switch choice {
	case 1:
		return false, s.createUser(ctx)
	case 2:
		return false, s.logIn(ctx)
	case 9:
		return true, nil
	default:
		s.println("Unrecognized choice!")
	}
	return false, nil
}

func (s *Shell) userMenu(ctx context.Context) error {
	p, err := s.principal(ctx)
	if err != nil {
		return err
	}
	if p.Login == "" {
		return nil
	}
	s.println("MAIN MENU")
	s.println("---------")
	s.println("1. View Profile")
	s.println("2. Update Profile")
	s.println("3. View Menu")
	s.println("4. Place Order")
	s.println("5. View Full Order ID History")
	s.println("6. View Past 5 Order IDs")
	s.println("7. View Order Information")
	s.println("8. View Stores")
	if policy.Permits(p.Role, policy.UpdateOrderStatus) {
		s.println("9. Update Order Status")
	}
	if policy.Permits(p.Role, policy.UpdateMenu) {
		s.println("10. Update Menu")
	}
	if policy.Permits(p.Role, policy.UpdateUsers) {
		s.println("11. Update User")
	}
	s.println(".........................")
	s.println("20. Log out")

	choice, err := s.readChoice()
	if err != nil {
		return err
	}
	switch choice {
	case 1:
		return s.viewProfile(ctx, p)
	case 2:
		return s.updateProfile(ctx, p)
	case 3:
		return s.viewMenu(ctx)
	case 4:
		return s.placeOrder(ctx, p)
	case 5:
		return s.viewHistory(ctx, p)
	case 6:
		return s.viewRecent(ctx, p)
	case 7:
		return s.viewOrder(ctx, p)
	case 8:
		return s.viewStores(ctx)
	case 9:
		return s.updateOrderStatus(ctx, p)
	case 10:
		return s.updateMenu(ctx, p)
	case 11:
		return s.updateUser(ctx, p)
	case 20:
		s.log.Info("logged out", zap.String("login", s.login))
		s.login = ""
	default:
		s.println("Unrecognized choice!")
	}
	return nil
}

// principal re-reads the logged-in user's role. A deleted or renamed account
// ends the session; a store failure ends the shell.
func (s *Shell) principal(ctx context.Context) (policy.Principal, error) {
	p, err := s.accounts.Principal(ctx, s.login)
	if err == nil {
		return p, nil
	}
	if apperr.KindOf(err) == apperr.Unauthenticated {
		s.printf("\n%s. Please log in again.\n\n", apperr.Message(err))
		s.login = ""
		return policy.Principal{}, nil
	}
	return policy.Principal{}, err
}

func (s *Shell) createUser(ctx context.Context) error {
	s.printf("Creating User Profile...\n\n")
	login, err := s.prompt("\tEnter login: ")
	if err != nil {
		return err
	}
	password, err := s.prompt("\tEnter password: ")
	if err != nil {
		return err
	}
	phone, err := s.prompt("\tEnter phone number: ")
	if err != nil {
		return err
	}
	if _, err := s.accounts.CreateUser(ctx, login, password, phone); err != nil {
		return s.fail(err)
	}
	s.printf("\nProfile has been Created...\n\n")
	return nil
}

func (s *Shell) logIn(ctx context.Context) error {
	s.printf("Logging In...\n\n")
	login, err := s.prompt("\tEnter login: ")
	if err != nil {
		return err
	}
	password, err := s.prompt("\tEnter password: ")
	if err != nil {
		return err
	}
	user, err := s.accounts.Authenticate(ctx, login, password)
	if err != nil {
		if apperr.KindOf(err) == apperr.Unauthenticated {
			s.printf("\nInvalid Login or Password...\n\n")
			return nil
		}
		return s.fail(err)
	}
	s.login = user.Login
	s.log.Info("logged in", zap.String("login", user.Login), zap.String("role", string(user.Role)))
	s.printf("\nSuccessfully Logged In...\n\n")
	return nil
}

// fail reports err to the user and swallows it unless the session is over.
func (s *Shell) fail(err error) error {
	if errors.Is(err, errInputClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if apperr.KindOf(err) == apperr.StoreError {
		s.log.Error("store failure", zap.Error(err))
		s.printf("\nSomething went wrong talking to the database. Please try again.\n\n")
		return nil
	}
	s.printf("\n%s\n\n", apperr.Message(err))
	return nil
}

type inputLine struct {
	text string
	err  error
}

// scan feeds s.lines until input ends or ctx is cancelled. A read blocked
// on a terminal outlives cancellation; only its result is dropped.
func (s *Shell) scan(ctx context.Context) {
	defer close(s.lines)
	sc := bufio.NewScanner(s.in)
	for sc.Scan() {
		select {
		case s.lines <- inputLine{text: sc.Text()}:
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil {
		select {
		case s.lines <- inputLine{err: err}:
		case <-ctx.Done():
		}
	}
}

func (s *Shell) readLine() (string, error) {
	select {
	case <-s.done:
		return "", s.cause()
	case l, ok := <-s.lines:
		if !ok {
			if err := s.cause(); err != nil {
				return "", err
			}
			return "", errInputClosed
		}
		if l.err != nil {
			return "", l.err
		}
		return strings.TrimSpace(l.text), nil
	}
}

func (s *Shell) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	return s.readLine()
}

// readChoice keeps asking until an integer is entered.
func (s *Shell) readChoice() (int, error) {
	for {
		line, err := s.prompt("Please make your choice: ")
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(line)
		if err == nil {
			return n, nil
		}
		s.println("Your input is invalid!")
	}
}

// promptInt asks once; ok is false when the input is not an integer.
func (s *Shell) promptInt(label string) (n int, ok bool, err error) {
	line, err := s.prompt(label)
	if err != nil {
		return 0, false, err
	}
	n, convErr := strconv.Atoi(line)
	if convErr != nil {
		s.println("Invalid Input...")
		return 0, false, nil
	}
	return n, true, nil
}

// confirm asks a y/n question until one of the two is given.
func (s *Shell) confirm(question string) (bool, error) {
	for {
		line, err := s.prompt(question + " y/n: ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		s.printf("\nInvalid Input (y/n)...\n\n")
	}
}

func (s *Shell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}
