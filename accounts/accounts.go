// Package accounts manages user records: signup, login, profile edits and
// manager-side user administration.
package accounts

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pizzastore/apperr"
	"pizzastore/gateway"
	"pizzastore/models"
	"pizzastore/policy"
	"pizzastore/validation"
)

type Directory struct {
	gw       *gateway.Gateway
	log      *zap.Logger
	hashCost int
}

type Option func(*Directory)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(d *Directory) { d.hashCost = cost }
}

func New(gw *gateway.Gateway, log *zap.Logger, opts ...Option) *Directory {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Directory{gw: gw, log: log, hashCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

const errBadCredentials = "invalid login or password"

// CreateUser registers a Customer with no favorite items.
func (d *Directory) CreateUser(ctx context.Context, login, password, phoneNum string) (models.User, error) {
	const op = "accounts.CreateUser"
	user := models.User{
		Login:    strings.TrimSpace(login),
		Password: password,
		Role:     models.RoleCustomer,
		PhoneNum: strings.TrimSpace(phoneNum),
	}
	if err := validation.Struct(op, user); err != nil {
		return models.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.hashCost)
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.Validation, op, err, "password cannot be hashed")
	}
	user.Password = string(hash)

	err = d.gw.Tx(ctx, op, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("login = ?", user.Login).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Errorf(apperr.Conflict, op, "login %q is already taken", user.Login)
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return models.User{}, err
	}
	d.log.Info("user created", zap.String("login", user.Login))
	return user, nil
}

// Authenticate checks credentials. Unknown logins and wrong passwords fail
// identically. Legacy plaintext passwords are upgraded to bcrypt on success.
func (d *Directory) Authenticate(ctx context.Context, login, password string) (models.User, error) {
	const op = "accounts.Authenticate"
	user, err := d.find(ctx, op, strings.TrimSpace(login))
	if apperr.KindOf(err) == apperr.NotFound {
		return models.User{}, apperr.New(apperr.Unauthenticated, op, errBadCredentials)
	}
	if err != nil {
		return models.User{}, err
	}
	ok, legacy := verifyPassword(user.Password, password)
	if !ok {
		return models.User{}, apperr.New(apperr.Unauthenticated, op, errBadCredentials)
	}
	if legacy {
		d.upgradePassword(ctx, user.Login, password)
	}
	user.Role = user.Role.Normalize()
	return user, nil
}

// Principal re-reads the caller's role so role changes apply immediately.
func (d *Directory) Principal(ctx context.Context, login string) (policy.Principal, error) {
	const op = "accounts.Principal"
	user, err := d.find(ctx, op, login)
	if apperr.KindOf(err) == apperr.NotFound {
		return policy.Principal{}, apperr.Errorf(apperr.Unauthenticated, op, "account %q no longer exists", login)
	}
	if err != nil {
		return policy.Principal{}, err
	}
	return policy.Principal{Login: user.Login, Role: user.Role.Normalize()}, nil
}

// Profile returns the user record of login.
func (d *Directory) Profile(ctx context.Context, p policy.Principal, login string) (models.User, error) {
	const op = "accounts.Profile"
	if err := policy.CanAccessUser(p, login); err != nil {
		return models.User{}, err
	}
	user, err := d.find(ctx, op, login)
	if err != nil {
		return models.User{}, err
	}
	user.Role = user.Role.Normalize()
	return user, nil
}

// ProfileUpdate carries the caller's own editable fields; nil fields are left
// alone.
type ProfileUpdate struct {
	FavoriteItems *string `json:"favorite_items"`
	PhoneNum      *string `json:"phone_num"`
}

func (d *Directory) UpdateFavoriteItems(ctx context.Context, p policy.Principal, items string) error {
	return d.UpdateOwnProfile(ctx, p, ProfileUpdate{FavoriteItems: &items})
}

func (d *Directory) UpdatePhone(ctx context.Context, p policy.Principal, phone string) error {
	return d.UpdateOwnProfile(ctx, p, ProfileUpdate{PhoneNum: &phone})
}

// UpdateOwnProfile validates every given field, then writes them in one
// statement. Nothing is written if any field is rejected.
func (d *Directory) UpdateOwnProfile(ctx context.Context, p policy.Principal, upd ProfileUpdate) error {
	const op = "accounts.UpdateOwnProfile"
	if err := policy.Require(p, policy.UpdateOwnProfile); err != nil {
		return err
	}
	cols := map[string]any{}
	if upd.FavoriteItems != nil {
		v := strings.TrimSpace(*upd.FavoriteItems)
		if len(v) > 400 {
			return apperr.New(apperr.Validation, op, "favorite items must be at most 400 characters")
		}
		cols["favoriteitems"] = v
	}
	if upd.PhoneNum != nil {
		v := strings.TrimSpace(*upd.PhoneNum)
		if len(v) > 20 {
			return apperr.New(apperr.Validation, op, "phone number must be at most 20 characters")
		}
		cols["phonenum"] = v
	}
	if len(cols) == 0 {
		return apperr.New(apperr.Validation, op, "favorite_items or phone_num is required")
	}
	res := d.gw.DB(ctx).Model(&models.User{}).Where("login = ?", p.Login).Updates(cols)
	if res.Error != nil {
		return gateway.Classify(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Errorf(apperr.NotFound, op, "user %q not found", p.Login)
	}
	return nil
}

// ChangePassword verifies the current password, then requires the new one
// twice before storing its hash.
func (d *Directory) ChangePassword(ctx context.Context, p policy.Principal, current, next, confirm string) error {
	const op = "accounts.ChangePassword"
	if err := policy.Require(p, policy.UpdateOwnProfile); err != nil {
		return err
	}
	user, err := d.find(ctx, op, p.Login)
	if err != nil {
		return err
	}
	if ok, _ := verifyPassword(user.Password, current); !ok {
		return apperr.New(apperr.Unauthenticated, op, "current password is incorrect")
	}
	if next == "" {
		return apperr.New(apperr.Validation, op, "new password must not be empty")
	}
	if next != confirm {
		return apperr.New(apperr.Validation, op, "new passwords do not match")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), d.hashCost)
	if err != nil {
		return apperr.Wrap(apperr.Validation, op, err, "password cannot be hashed")
	}
	if err := d.gw.DB(ctx).Model(&models.User{}).Where("login = ?", p.Login).
		Update("password", string(hash)).Error; err != nil {
		return gateway.Classify(op, err)
	}
	d.log.Info("password changed", zap.String("login", p.Login))
	return nil
}

func (d *Directory) find(ctx context.Context, op, login string) (models.User, error) {
	var user models.User
	if err := d.gw.DB(ctx).Where("login = ?", login).First(&user).Error; err != nil {
		if apperr.KindOf(gateway.Classify(op, err)) == apperr.NotFound {
			return user, apperr.Errorf(apperr.NotFound, op, "user %q not found", login)
		}
		return user, gateway.Classify(op, err)
	}
	return user, nil
}

func (d *Directory) upgradePassword(ctx context.Context, login, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.hashCost)
	if err == nil {
		err = d.gw.DB(ctx).Model(&models.User{}).Where("login = ?", login).
			Update("password", string(hash)).Error
	}
	if err != nil {
		d.log.Warn("legacy password upgrade failed", zap.String("login", login), zap.Error(err))
		return
	}
	d.log.Info("legacy password upgraded", zap.String("login", login))
}

// verifyPassword compares against a bcrypt hash, or exactly against a legacy
// plaintext value (char(n) padding ignored). legacy is true for the latter.
func verifyPassword(stored, given string) (ok, legacy bool) {
	if _, err := bcrypt.Cost([]byte(stored)); err == nil {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil, false
	}
	return given != "" && strings.TrimRight(stored, " ") == given, true
}
