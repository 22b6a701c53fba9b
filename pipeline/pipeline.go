package pipeline

import (
	"log"
	"time"
	"videoflow/classifier"
	"videoflow/config"
	"videoflow/db"
	"videoflow/metrics"
	"videoflow/models"
	"videoflow/notifier"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Job describes one upload waiting for classification. Jobs are transient -
// nothing here is persisted.
type Job struct {
	VideoID    string
	LocalPath  string
	MimeType   string
	EnqueuedAt time.Time
}

var (
	jobs     chan Job
	inFlight = cmap.New[bool]()
	hub      *notifier.Hub
	gateway  classifier.API
)

// Init wires the orchestrator's collaborators and starts the worker pool.
// Explicit injection here - the hub is not smuggled through request context.
func Init(h *notifier.Hub, c classifier.API) {
	hub = h
	gateway = c
	jobs = make(chan Job, 64)
	for i := 0; i < config.PIPELINE_WORKERS; i++ {
		go worker()
	}
}

// Enqueue hands a job to the pool without ever blocking the caller. Returns
// false when a run for the same video is already in flight.
func Enqueue(job Job) bool {
	if !inFlight.SetIfAbsent(job.VideoID, true) {
		return false
	}
	select {
	case jobs <- job:
	default:
		// Pool backlog is full - hand off in a fresh goroutine so the
		// upload response is not delayed.
		go func() { jobs <- job }()
	}
	return true
}

// InFlight reports whether a classification run is active for the video.
func InFlight(videoID string) bool {
	return inFlight.Has(videoID)
}

func worker() {
	for job := range jobs {
		run(job)
	}
}

// run drives one video through classification. Every accepted upload ends
// in a terminal status: any failure here marks the video flagged, since an
// unverifiable video must not pass as safe.
func run(job Job) {
	defer inFlight.Remove(job.VideoID)
	metrics.PipelineInFlight.Inc()
	defer metrics.PipelineInFlight.Dec()

	video := models.Video{ID: job.VideoID}
	if err := db.Instance.First(&video).Error; err != nil {
		log.Printf("[pipeline] video %s disappeared before classification: %v", job.VideoID, err)
		return
	}
	log.Printf("[pipeline] starting for video %s", job.VideoID)
	setProgress(&video, 10)
	hub.Publish(job.VideoID, notifier.EventStart, map[string]interface{}{
		"videoId": job.VideoID,
	})

	verdict, err := gateway.Classify(job.LocalPath, job.MimeType, func(progress int) {
		setProgress(&video, progress)
		hub.Publish(job.VideoID, notifier.EventProgress, map[string]interface{}{
			"videoId":  job.VideoID,
			"progress": progress,
		})
	})
	if err != nil {
		fail(&video, err)
		return
	}

	status := models.VideoStatusSafe
	if !verdict.Safe {
		status = models.VideoStatusFlagged
	}
	if err = video.SetTerminalStatus(status, verdict.Reason); err != nil {
		log.Printf("[pipeline] video %s: cannot store verdict: %v", job.VideoID, err)
		fail(&video, err)
		return
	}
	metrics.ClassificationsTotal.WithLabelValues(string(status)).Inc()
	log.Printf("[pipeline] video %s done: %s (%s)", job.VideoID, status, verdict.Reason)
	hub.Publish(job.VideoID, notifier.EventProcessed, map[string]interface{}{
		"videoId": job.VideoID,
		"status":  status,
		"reason":  verdict.Reason,
	})
}

func setProgress(video *models.Video, progress int) {
	if err := video.SetProgress(progress); err != nil {
		log.Printf("[pipeline] video %s: progress update failed: %v", video.ID, err)
	}
}

// fail applies the fail-closed policy: a video whose safety could not be
// verified is flagged, never left pending and never reported safe.
func fail(video *models.Video, cause error) {
	log.Printf("[pipeline] video %s failed: %v", video.ID, cause)
	err := db.Instance.Model(video).
		Update("status", models.VideoStatusFlagged).Error
	if err != nil {
		log.Printf("[pipeline] video %s: cannot mark flagged: %v", video.ID, err)
	}
	metrics.ClassificationsTotal.WithLabelValues("error").Inc()
	hub.Publish(video.ID, notifier.EventError, map[string]interface{}{
		"videoId": video.ID,
		"error":   cause.Error(),
	})
}
