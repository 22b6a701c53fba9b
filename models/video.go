package models

import (
	"path/filepath"
	"time"
	"videoflow/db"
	"videoflow/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusSafe       VideoStatus = "safe"
	VideoStatusFlagged    VideoStatus = "flagged"
)

type Video struct {
	ID           string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt    int64             `json:"created_at"`
	UpdatedAt    int64             `json:"-"`
	Title        string            `gorm:"type:varchar(300)" json:"title"`
	FileName     string            `gorm:"type:varchar(300)" json:"filename"` // key in the storage bucket
	UploaderID   uint64            `gorm:"index;not null" json:"uploader_id"`
	Uploader     User              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	BucketID     uint64            `json:"-"`
	Assignments  []VideoAssignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"assignments"`
	Status       VideoStatus       `gorm:"type:varchar(16);default:pending;index" json:"status"`
	StatusReason string            `gorm:"type:varchar(2000);default:''" json:"status_reason"`
	Progress     int               `gorm:"default:0" json:"progress"`
	Size         int64             `json:"size"`
	Duration     float64           `gorm:"default:0" json:"duration"` // seconds
	MimeType     string            `gorm:"type:varchar(50)" json:"mime_type"`
	Category     string            `gorm:"type:varchar(100);default:Uncategorized" json:"category"`
}

// VideoAssignment links a video to a user it was assigned to.
// The uploader is never in this set - they have implicit access.
type VideoAssignment struct {
	ID      uint64 `gorm:"primaryKey" json:"-"`
	VideoID string `gorm:"type:varchar(36);index:uniq_assignment,unique,priority:1;not null" json:"-"`
	UserID  uint64 `gorm:"index:uniq_assignment,unique,priority:2;not null" json:"user_id"`
}

func (v *Video) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt == 0 {
		v.CreatedAt = time.Now().Unix()
	}
	if v.Category == "" {
		v.Category = "Uncategorized"
	}
	return
}

// DownloadName returns a name safe to put in a content-disposition header,
// preserving the stored file's extension.
func (v *Video) DownloadName() string {
	return utils.SanitizeFilename(v.Title) + filepath.Ext(v.FileName)
}

// CanBeSeenBy implements the listing access rule: admins see everything,
// others only what they uploaded or were assigned.
func (v *Video) CanBeSeenBy(user *User) bool {
	if user.IsAdmin() || v.UploaderID == user.ID {
		return true
	}
	var count int64
	db.Instance.Model(&VideoAssignment{}).
		Where("video_id = ? AND user_id = ?", v.ID, user.ID).
		Count(&count)
	return count > 0
}

// Assign adds the given users to the assignee set. Already-assigned users
// and the uploader are skipped.
func (v *Video) Assign(userIDs []uint64) error {
	for _, uid := range userIDs {
		if uid == v.UploaderID {
			continue
		}
		var count int64
		db.Instance.Model(&VideoAssignment{}).
			Where("video_id = ? AND user_id = ?", v.ID, uid).
			Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Instance.Create(&VideoAssignment{VideoID: v.ID, UserID: uid}).Error; err != nil {
			return err
		}
	}
	return db.Instance.Preload("Assignments").First(v).Error
}

// SetTerminalStatus records the classification outcome.
func (v *Video) SetTerminalStatus(status VideoStatus, reason string) error {
	return db.Instance.Model(v).Updates(map[string]interface{}{
		"status":        status,
		"status_reason": reason,
		"progress":      100,
	}).Error
}

// SetProgress bumps the progress while the video is processing.
// Progress never goes backwards.
func (v *Video) SetProgress(progress int) error {
	return db.Instance.Model(v).
		Where("progress < ?", progress).
		Updates(map[string]interface{}{
			"status":   VideoStatusProcessing,
			"progress": progress,
		}).Error
}

func VideoCategories() ([]string, error) {
	categories := []string{}
	err := db.Instance.Model(&Video{}).
		Distinct("category").
		Where("category IS NOT NULL AND category != ''").
		Order("category").
		Pluck("category", &categories).Error
	return categories, err
}
