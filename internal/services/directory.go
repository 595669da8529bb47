package services

import (
	"context"

	"clubhub/internal/errno"
	"clubhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Directory 用户与社团成员关系的只读视图，由外部的社团模块维护数据
type Directory interface {
	UserExists(ctx context.Context, username string) (bool, error)
	AdminUsernames(ctx context.Context) ([]string, error)
	ClubExists(ctx context.Context, name string) (bool, error)
	ClubMembers(ctx context.Context, name string) ([]string, error)
}

type gormDirectory struct {
	db *gorm.DB
}

// NewDirectory returns a Directory backed by db. Passing a transaction makes
// every lookup part of that transaction.
func NewDirectory(db *gorm.DB) Directory {
	return &gormDirectory{db: db}
}

func (d *gormDirectory) UserExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return false, errno.Store(err)
	}
	return count > 0, nil
}

func (d *gormDirectory) AdminUsernames(ctx context.Context) ([]string, error) {
	var names []string
	err := d.db.WithContext(ctx).Model(&models.User{}).
		Where("is_admin = ?", true).
		Order("username ASC").
		Pluck("username", &names).Error
	if err != nil {
		return nil, errno.Store(err)
	}
	return names, nil
}

func (d *gormDirectory) ClubExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.Club{}).Where("name = ?", name).Count(&count).Error
	if err != nil {
		return false, errno.Store(err)
	}
	return count > 0, nil
}

// ClubMembers 返回社团全部成员。在 postgres 上加共享锁，
// 群发写入提交前成员名单不会被修改。
func (d *gormDirectory) ClubMembers(ctx context.Context, name string) ([]string, error) {
	var names []string
	err := d.db.WithContext(ctx).Model(&models.Membership{}).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("club_name = ?", name).
		Order("username ASC").
		Pluck("username", &names).Error
	if err != nil {
		return nil, errno.Store(err)
	}
	return names, nil
}
