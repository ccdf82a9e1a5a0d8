package repository

import (
	"context"

	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for user and role assignment data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error)
	EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	ListByRole(ctx context.Context, role string) ([]models.User, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	CountDependents(ctx context.Context, id uint) (projects int64, evaluations int64, err error)
	RoleNames(ctx context.Context, id uint) ([]string, error)
	Roles(ctx context.Context, id uint) ([]models.Role, error)
	HasRole(ctx context.Context, userID, roleID uint) (bool, error)
	AssignRole(ctx context.Context, userID, roleID uint) error
	RemoveRole(ctx context.Context, userID, roleID uint) (bool, error)
}

type userRepository struct {
	base
}

// Create inserts the user and its role links in one transaction
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		roles := user.Roles
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}
		for _, role := range roles {
			link := models.UserRole{UserID: user.ID, RoleID: role.ID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err, "user.create")
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user models.User
	if err := db.Preload("Roles").First(&user, id).Error; err != nil {
		return nil, translate(err, "user.find")
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user models.User
	if err := db.Preload("Roles").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err, "user.find")
	}
	return &user, nil
}

func (r *userRepository) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	return r.taken(ctx, "username", username, exceptID)
}

func (r *userRepository) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	return r.taken(ctx, "email", email, exceptID)
}

func (r *userRepository) taken(ctx context.Context, column, value string, exceptID uint) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	q := db.Model(&models.User{}).Where(column+" = ?", value)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, translate(err, "user.lookup")
	}
	return count > 0, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var users []models.User
	if err := db.Preload("Roles").Order("id").Find(&users).Error; err != nil {
		return nil, translate(err, "user.list")
	}
	return users, nil
}

// ListByRole returns users holding the named role
func (r *userRepository) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var users []models.User
	err := db.
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ?", models.NormalizeRoleName(role)).
		Order("users.id").
		Find(&users).Error
	if err != nil {
		return nil, translate(err, "user.list")
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return translate(result.Error, "user.update")
	}
	return nil
}

// Delete removes the user together with its role links and refresh tokens
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err, "user.delete")
}

func (r *userRepository) CountDependents(ctx context.Context, id uint) (int64, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var projects, evaluations int64
	if err := db.Model(&models.Project{}).Where("id_user = ?", id).Count(&projects).Error; err != nil {
		return 0, 0, translate(err, "user.dependents")
	}
	err := db.Model(&models.Calificacion{}).
		Where("user_evaluador_id = ? OR user_alumno_id = ?", id, id).
		Count(&evaluations).Error
	if err != nil {
		return 0, 0, translate(err, "user.dependents")
	}
	return projects, evaluations, nil
}

func (r *userRepository) RoleNames(ctx context.Context, id uint) ([]string, error) {
	roles, err := r.Roles(ctx, id)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, models.NormalizeRoleName(role.Name))
	}
	return names, nil
}

func (r *userRepository) Roles(ctx context.Context, id uint) ([]models.Role, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var roles []models.Role
	err := db.
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", id).
		Order("roles.id").
		Find(&roles).Error
	if err != nil {
		return nil, translate(err, "user.roles")
	}
	return roles, nil
}

func (r *userRepository) HasRole(ctx context.Context, userID, roleID uint) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.UserRole{}).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "user.roles")
	}
	return count > 0, nil
}

func (r *userRepository) AssignRole(ctx context.Context, userID, roleID uint) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	link := models.UserRole{UserID: userID, RoleID: roleID}
	return translate(db.Create(&link).Error, "user.assignRole")
}

func (r *userRepository) RemoveRole(ctx context.Context, userID, roleID uint) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Where("user_id = ? AND role_id = ?", userID, roleID).Delete(&models.UserRole{})
	if result.Error != nil {
		return false, translate(result.Error, "user.removeRole")
	}
	return result.RowsAffected > 0, nil
}
