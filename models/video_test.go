package models

import (
	"path/filepath"
	"testing"
	"videoflow/config"
	"videoflow/db"
)

func setupDB(t *testing.T) {
	t.Helper()
	config.SQLITE_FILE = filepath.Join(t.TempDir(), "test.db")
	db.Init()
	Init()
}

func TestVideoDownloadName(t *testing.T) {
	tests := []struct {
		name  string
		video Video
		want  string
	}{
		{
			name:  "plain",
			video: Video{Title: "holiday", FileName: "videos/123-abc.mp4"},
			want:  "holiday.mp4",
		},
		{
			name:  "special characters",
			video: Video{Title: "my clip (final)!", FileName: "videos/123-abc.webm"},
			want:  "my_clip__final__.webm",
		},
		{
			name:  "keeps dots and dashes",
			video: Video{Title: "v1.2-beta", FileName: "videos/123-abc.mkv"},
			want:  "v1.2-beta.mkv",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.video.DownloadName(); got != tt.want {
				t.Errorf("DownloadName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVideoDefaultsOnCreate(t *testing.T) {
	setupDB(t)
	user, err := UserCreate("U", "u@example.com", "pw", RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	video := Video{Title: "t", FileName: "videos/x.mp4", UploaderID: user.ID, Status: VideoStatusPending}
	if err := db.Instance.Create(&video).Error; err != nil {
		t.Fatal(err)
	}
	if video.ID == "" {
		t.Error("no ID generated")
	}
	if video.Category != "Uncategorized" {
		t.Errorf("category = %q, want Uncategorized", video.Category)
	}
	if video.CreatedAt == 0 {
		t.Error("no creation timestamp")
	}
}

func TestVideoProgressNeverGoesBackwards(t *testing.T) {
	setupDB(t)
	user, _ := UserCreate("U", "u@example.com", "pw", RoleUser)
	video := Video{Title: "t", FileName: "videos/x.mp4", UploaderID: user.ID, Status: VideoStatusPending}
	if err := db.Instance.Create(&video).Error; err != nil {
		t.Fatal(err)
	}
	for _, p := range []int{10, 60, 30} {
		if err := video.SetProgress(p); err != nil {
			t.Fatal(err)
		}
	}
	got := Video{}
	db.Instance.First(&got, "id = ?", video.ID)
	if got.Progress != 60 {
		t.Errorf("progress = %d, want 60 (no rollback)", got.Progress)
	}
	if got.Status != VideoStatusProcessing {
		t.Errorf("status = %s, want processing", got.Status)
	}
}

func TestVideoAssignSkipsDuplicatesAndUploader(t *testing.T) {
	setupDB(t)
	uploader, _ := UserCreate("Up", "up@example.com", "pw", RoleUser)
	viewer, _ := UserCreate("V", "v@example.com", "pw", RoleUser)
	video := Video{Title: "t", FileName: "videos/x.mp4", UploaderID: uploader.ID, Status: VideoStatusPending}
	if err := db.Instance.Create(&video).Error; err != nil {
		t.Fatal(err)
	}
	if err := video.Assign([]uint64{viewer.ID, viewer.ID, uploader.ID}); err != nil {
		t.Fatal(err)
	}
	if err := video.Assign([]uint64{viewer.ID}); err != nil {
		t.Fatal(err)
	}
	var count int64
	db.Instance.Model(&VideoAssignment{}).Where("video_id = ?", video.ID).Count(&count)
	if count != 1 {
		t.Errorf("assignment count = %d, want 1", count)
	}
	if !video.CanBeSeenBy(&viewer) {
		t.Error("assigned viewer cannot see the video")
	}
	other := User{ID: viewer.ID + 100, Role: RoleUser}
	if video.CanBeSeenBy(&other) {
		t.Error("unrelated user can see the video")
	}
}
