package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"videoflow/config"
	"videoflow/db"
	"videoflow/metrics"
	"videoflow/models"
	"videoflow/pipeline"
	"videoflow/storage"

	"github.com/gin-gonic/gin"
)

// Container formats we accept for upload
var allowedMimeTypes = map[string]bool{
	"video/mp4":        true,
	"video/mpeg":       true,
	"video/quicktime":  true, // .mov
	"video/x-msvideo":  true, // .avi
	"video/webm":       true,
	"video/x-matroska": true, // .mkv
}

type VideoAssignRequest struct {
	UserIDs []uint64 `json:"user_ids" binding:"required"`
}

// VideoUpload stores the file, creates the pending record and hands the
// video to the classification pipeline. It returns as soon as the record
// exists - classification runs in the background.
func VideoUpload(c *gin.Context, user *models.User) {
	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{"no video file uploaded"})
		return
	}
	mimeType := file.Header.Get("Content-Type")
	if !allowedMimeTypes[mimeType] {
		c.JSON(http.StatusBadRequest, Response{"invalid file type, only video files are allowed"})
		return
	}
	if file.Size > config.MAX_UPLOAD_SIZE {
		c.JSON(http.StatusRequestEntityTooLarge, Response{"file too large"})
		return
	}
	store := storage.GetDefaultStorage()
	key := storage.NewFileKey(strings.ToLower(filepath.Ext(file.Filename)))
	reader, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{err.Error()})
		return
	}
	defer reader.Close()
	size, err := store.Save(key, reader)
	if err != nil {
		// A partial write (client abort included) must not leave a record
		// behind, nor a partial file
		_ = store.Delete(key)
		c.JSON(http.StatusInternalServerError, Response{"cannot store file"})
		return
	}
	title := c.PostForm("title")
	if title == "" {
		title = file.Filename
	}
	duration, _ := strconv.ParseFloat(c.PostForm("duration"), 64)
	video := models.Video{
		Title:      title,
		FileName:   key,
		UploaderID: user.ID,
		BucketID:   store.GetBucket().ID,
		Status:     models.VideoStatusPending,
		Size:       size,
		Duration:   duration,
		MimeType:   mimeType,
		Category:   c.PostForm("category"),
	}
	if err = db.Instance.Create(&video).Error; err != nil {
		_ = store.Delete(key)
		c.JSON(http.StatusInternalServerError, DBErrorResponse)
		return
	}
	metrics.UploadsTotal.Inc()
	pipeline.Enqueue(pipeline.Job{
		VideoID:    video.ID,
		LocalPath:  store.GetFullPath(key),
		MimeType:   mimeType,
		EnqueuedAt: time.Now(),
	})
	c.JSON(http.StatusCreated, video)
}

func VideoList(c *gin.Context, user *models.User) {
	tx := db.Instance.Model(&models.Video{}).Preload("Assignments")
	if status := c.Query("status"); status != "" && status != "all" {
		tx = tx.Where("status = ?", status)
	}
	if category := c.Query("category"); category != "" {
		tx = tx.Where("category = ?", category)
	}
	if fromDate := c.Query("fromDate"); fromDate != "" {
		day, err := time.ParseInLocation("2006-01-02", fromDate, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{"invalid fromDate"})
			return
		}
		tx = tx.Where("created_at >= ? AND created_at < ?", day.Unix(), day.AddDate(0, 0, 1).Unix())
	}
	if minSize := c.Query("minSize"); minSize != "" {
		tx = tx.Where("size >= ?", minSize)
	}
	if maxSize := c.Query("maxSize"); maxSize != "" {
		tx = tx.Where("size <= ?", maxSize)
	}
	if minDuration := c.Query("minDuration"); minDuration != "" {
		tx = tx.Where("duration >= ?", minDuration)
	}
	if maxDuration := c.Query("maxDuration"); maxDuration != "" {
		tx = tx.Where("duration <= ?", maxDuration)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(file_name) LIKE ?", pattern, pattern)
	}
	// Non-admins only see what they uploaded or were assigned
	if !user.IsAdmin() {
		tx = tx.Where("uploader_id = ? OR id IN (SELECT video_id FROM video_assignments WHERE user_id = ?)",
			user.ID, user.ID)
	}
	if c.Query("sort") == "oldest" {
		tx = tx.Order("created_at ASC")
	} else {
		tx = tx.Order("created_at DESC")
	}
	videos := []models.Video{}
	if err := tx.Find(&videos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBErrorResponse)
		return
	}
	c.JSON(http.StatusOK, videos)
}

// VideoStream serves the stored bytes, honouring HTTP range requests so
// players can seek. Works the same whatever the classification state is.
func VideoStream(c *gin.Context, user *models.User) {
	video := models.Video{ID: c.Param("id")}
	if err := db.Instance.First(&video).Error; err != nil {
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return
	}
	store := storage.StorageFrom(&storage.Bucket{ID: video.BucketID})
	if store == nil {
		c.JSON(http.StatusInternalServerError, Response{"storage unavailable"})
		return
	}
	rangeHeader := c.GetHeader("Range")
	start, end := int64(0), int64(-1)
	if rangeHeader != "" {
		var ok bool
		start, end, ok = parseRange(rangeHeader)
		if !ok {
			c.JSON(http.StatusBadRequest, Response{"invalid range header"})
			return
		}
	}
	reader, totalSize, err := store.OpenRange(video.FileName, start, end)
	if errors.Is(err, storage.ErrOutOfRange) {
		if rangeHeader != "" {
			c.Header("Content-Range", "bytes */"+strconv.FormatInt(totalSize, 10))
			c.String(http.StatusRequestedRangeNotSatisfiable, "requested range not satisfiable")
			return
		}
		// No range was asked for, so a zero-byte file is simply served whole
		c.Header("Content-Type", video.MimeType)
		c.Header("Content-Length", "0")
		if c.Query("download") == "true" {
			c.Header("Content-Disposition", "attachment; filename=\""+video.DownloadName()+"\"")
		}
		c.Status(http.StatusOK)
		return
	}
	if err != nil {
		// The record exists but the bytes are gone
		c.JSON(http.StatusNotFound, Response{"video file missing"})
		return
	}
	defer reader.Close()

	c.Header("Content-Type", video.MimeType)
	if rangeHeader == "" {
		c.Header("Content-Length", strconv.FormatInt(totalSize, 10))
		if c.Query("download") == "true" {
			c.Header("Content-Disposition", "attachment; filename=\""+video.DownloadName()+"\"")
		}
		c.Status(http.StatusOK)
	} else {
		if end < 0 || end >= totalSize {
			end = totalSize - 1
		}
		c.Header("Content-Range", "bytes "+strconv.FormatInt(start, 10)+"-"+strconv.FormatInt(end, 10)+"/"+strconv.FormatInt(totalSize, 10))
		c.Header("Accept-Ranges", "bytes")
		c.Header("Content-Length", strconv.FormatInt(end-start+1, 10))
		c.Status(http.StatusPartialContent)
	}
	sent, err := io.Copy(c.Writer, reader)
	metrics.BytesStreamedTotal.Add(float64(sent))
	if err != nil {
		// Most likely the client went away mid-transfer
		log.Printf("stream aborted for video %s after %d bytes: %v", video.ID, sent, err)
	}
}

// parseRange handles the single-range form "bytes=<start>-<end?>"
func parseRange(header string) (start, end int64, ok bool) {
	if !strings.HasPrefix(header, "bytes=") {
		return 0, 0, false
	}
	parts := strings.SplitN(strings.TrimPrefix(header, "bytes="), "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || start < 0 {
		return 0, 0, false
	}
	end = int64(-1)
	if parts[1] != "" {
		end, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil || end < start {
			return 0, 0, false
		}
	}
	return start, end, true
}

func VideoDelete(c *gin.Context, user *models.User) {
	video := models.Video{ID: c.Param("id")}
	if err := db.Instance.First(&video).Error; err != nil {
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return
	}
	if video.UploaderID != user.ID && !user.IsAdmin() {
		c.JSON(http.StatusForbidden, NopeResponse)
		return
	}
	if store := storage.StorageFrom(&storage.Bucket{ID: video.BucketID}); store != nil {
		if err := store.Delete(video.FileName); err != nil {
			log.Printf("video %s: file delete error: %v", video.ID, err)
		}
	}
	db.Instance.Where("video_id = ?", video.ID).Delete(&models.VideoAssignment{})
	if err := db.Instance.Delete(&video).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBErrorResponse)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": video.ID, "message": "Video deleted"})
}

func VideoAssign(c *gin.Context, user *models.User) {
	r := VideoAssignRequest{}
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{"please provide a list of users to assign"})
		return
	}
	video := models.Video{ID: c.Param("id")}
	if err := db.Instance.First(&video).Error; err != nil {
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return
	}
	if video.UploaderID != user.ID && !user.IsAdmin() {
		c.JSON(http.StatusForbidden, NopeResponse)
		return
	}
	if err := video.Assign(r.UserIDs); err != nil {
		c.JSON(http.StatusInternalServerError, DBErrorResponse)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Video assigned successfully", "video": video})
}

func CategoryList(c *gin.Context, user *models.User) {
	categories, err := models.VideoCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBErrorResponse)
		return
	}
	c.JSON(http.StatusOK, categories)
}
