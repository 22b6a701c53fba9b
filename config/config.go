package config

import (
	"os"
	"strconv"
	"strings"
)

var (
	TLS_DOMAINS  = "" // e.g. "example.com,example2.com"
	MYSQL_DSN    = "" // MySQL will be used if this is set
	SQLITE_FILE  = "" // SQLite will be used if MYSQL_DSN is not configured and this is set
	BIND_ADDRESS = "0.0.0.0:5000"
	UPLOAD_DIR   = "uploads" // Used for creating the initial disk bucket
	DEBUG_MODE   = true

	// External video-understanding service
	CLASSIFIER_BASE_URL      = "https://generativelanguage.googleapis.com"
	CLASSIFIER_API_KEY       = ""
	CLASSIFIER_MODEL         = "gemini-2.5-flash"
	CLASSIFIER_POLL_INTERVAL = 2.0    // seconds between remote state polls
	CLASSIFIER_MAX_WAIT      = 3600.0 // seconds before giving up on a remote file stuck in PROCESSING

	PIPELINE_WORKERS = 4

	MAX_UPLOAD_SIZE = int64(10) * 1024 * 1024 * 1024 // 10 GiB
)

func init() {
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvString("UPLOAD_DIR", &UPLOAD_DIR)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("CLASSIFIER_BASE_URL", &CLASSIFIER_BASE_URL)
	readEnvString("CLASSIFIER_API_KEY", &CLASSIFIER_API_KEY)
	readEnvString("CLASSIFIER_MODEL", &CLASSIFIER_MODEL)
	readEnvFloat("CLASSIFIER_POLL_INTERVAL", &CLASSIFIER_POLL_INTERVAL)
	readEnvFloat("CLASSIFIER_MAX_WAIT", &CLASSIFIER_MAX_WAIT)
	readEnvInt("PIPELINE_WORKERS", &PIPELINE_WORKERS)
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvFloat(name string, value *float64) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}
	*value = f
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = f
}
