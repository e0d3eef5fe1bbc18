package post

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

func (s *Service) CreateGroup(ctx context.Context, ownerID uint64, name, description string) (uint64, error) {
	var groupID uint64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g := Group{
			OwnerID:     ownerID,
			Name:        name,
			Description: description,
			MemberCount: 1,
		}
		now := time.Now()
		g.LastHumanActivityAt = &now
		if err := tx.Create(&g).Error; err != nil {
			return err
		}
		groupID = g.ID

		return tx.Create(&GroupMember{GroupID: g.ID, UserID: ownerID}).Error
	})
	return groupID, err
}

// RequestJoin files a pending request; a duplicate application is a business
// rejection, not an error.
func (s *Service) RequestJoin(ctx context.Context, userID, groupID uint64) (uint64, error) {
	var g Group
	if err := s.DB.WithContext(ctx).
		Where("id = ? AND condemned_at is null", groupID).
		First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	var pending int64
	if err := s.DB.WithContext(ctx).Model(&JoinRequest{}).
		Where("group_id = ? AND user_id = ? AND status = 'PENDING'", groupID, userID).
		Count(&pending).Error; err != nil {
		return 0, err
	}
	if pending > 0 {
		return 0, ErrDuplicateRequest
	}

	req := JoinRequest{GroupID: groupID, UserID: userID}
	if err := s.DB.WithContext(ctx).Create(&req).Error; err != nil {
		return 0, err
	}
	return req.ID, nil
}

// ApproveJoin admits the requester. The member count moves by atomic
// increment only.
func (s *Service) ApproveJoin(ctx context.Context, ownerID, requestID uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req JoinRequest
		if err := tx.Where("id = ? AND status = 'PENDING'", requestID).First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var g Group
		if err := tx.Where("id = ? AND owner_id = ?", req.GroupID, ownerID).First(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Model(&JoinRequest{}).
			Where("id = ?", req.ID).
			Update("status", "APPROVED").Error; err != nil {
			return err
		}

		res := tx.Exec(`
insert into group_members (group_id, user_id, joined_at)
values (?, ?, now())
on conflict do nothing`, req.GroupID, req.UserID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // already a member, approval replayed
		}
		return tx.Model(&Group{}).
			Where("id = ?", req.GroupID).
			UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error
	})
}
