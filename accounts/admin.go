package accounts

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pizzastore/apperr"
	"pizzastore/gateway"
	"pizzastore/models"
	"pizzastore/policy"
	"pizzastore/validation"
)

// UserUpdate lists the fields a manager may change; nil fields are kept.
type UserUpdate struct {
	NewLogin      *string `json:"new_login"`
	Role          *string `json:"role"`
	FavoriteItems *string `json:"favorite_items"`
	PhoneNum      *string `json:"phone_num"`
}

func (u UserUpdate) empty() bool {
	return u.NewLogin == nil && u.Role == nil && u.FavoriteItems == nil && u.PhoneNum == nil
}

// UpdateUser applies a manager's edit to login. A rename moves the user's
// orders to the new login inside the same transaction.
func (d *Directory) UpdateUser(ctx context.Context, p policy.Principal, login string, upd UserUpdate) (models.User, error) {
	const op = "accounts.UpdateUser"
	if err := policy.Require(p, policy.UpdateUsers); err != nil {
		return models.User{}, err
	}
	if upd.empty() {
		return models.User{}, apperr.New(apperr.Validation, op, "nothing to update")
	}
	var role models.UserRole
	if upd.Role != nil {
		r, err := models.ParseRole(*upd.Role)
		if err != nil {
			return models.User{}, apperr.Wrap(apperr.Validation, op, err, err.Error())
		}
		role = r
	}

	var user models.User
	err := d.gw.Tx(ctx, op, func(tx *gorm.DB) error {
		if err := tx.Where("login = ?", login).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Errorf(apperr.NotFound, op, "user %q not found", login)
			}
			return err
		}
		if role != "" {
			user.Role = role
		}
		if upd.FavoriteItems != nil {
			user.FavoriteItems = strings.TrimSpace(*upd.FavoriteItems)
		}
		if upd.PhoneNum != nil {
			user.PhoneNum = strings.TrimSpace(*upd.PhoneNum)
		}
		oldLogin := user.Login
		if upd.NewLogin != nil {
			user.Login = strings.TrimSpace(*upd.NewLogin)
		}
		if err := validation.Struct(op, user); err != nil {
			return err
		}

		if user.Login == oldLogin {
			return tx.Model(&models.User{}).Where("login = ?", oldLogin).Updates(map[string]any{
				"role":          user.Role,
				"favoriteitems": user.FavoriteItems,
				"phonenum":      user.PhoneNum,
			}).Error
		}
		return renameUser(tx, op, oldLogin, user)
	})
	if err != nil {
		return models.User{}, err
	}
	d.log.Info("user updated", zap.String("login", login), zap.String("now", user.Login), zap.String("by", p.Login))
	return user, nil
}

// renameUser inserts the renamed row first so foodorder.login always
// references an existing user, then repoints the orders and removes the old
// row.
func renameUser(tx *gorm.DB, op, oldLogin string, user models.User) error {
	var n int64
	if err := tx.Model(&models.User{}).Where("login = ?", user.Login).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.Errorf(apperr.Conflict, op, "login %q is already taken", user.Login)
	}
	if err := tx.Create(&user).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Order{}).Where("login = ?", oldLogin).Update("login", user.Login).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.OrderStatusHistory{}).Where("changedby = ?", oldLogin).
		Update("changedby", user.Login).Error; err != nil {
		return err
	}
	return tx.Where("login = ?", oldLogin).Delete(&models.User{}).Error
}

// ListUsers returns every user, or only those holding role when it is set.
func (d *Directory) ListUsers(ctx context.Context, p policy.Principal, role string) ([]models.User, error) {
	const op = "accounts.ListUsers"
	if err := policy.Require(p, policy.UpdateUsers); err != nil {
		return nil, err
	}
	q := d.gw.DB(ctx).Order("login asc")
	if strings.TrimSpace(role) != "" {
		r, err := models.ParseRole(role)
		if err != nil {
			return nil, apperr.Wrap(apperr.Validation, op, err, err.Error())
		}
		q = q.Where("LOWER(TRIM(role)) = ?", strings.ToLower(string(r)))
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, gateway.Classify(op, err)
	}
	for i := range users {
		users[i].Role = users[i].Role.Normalize()
	}
	return users, nil
}
