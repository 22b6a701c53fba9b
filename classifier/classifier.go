package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"
	"videoflow/config"
)

const verdictPrompt = `Is this video safe for work? Return strictly a JSON object: { "safe": boolean, "reason": string }. Do not use markdown.`

// API is what the pipeline needs from the gateway. The progress callback
// receives the coarse milestones (30/60/80) as the run advances.
type API interface {
	Classify(localPath, mimeType string, progress func(int)) (Verdict, error)
}

// Gateway talks to a Gemini-style video understanding service: upload the
// raw bytes, wait for the remote copy to become ACTIVE, ask for a verdict,
// delete the remote copy.
type Gateway struct {
	BaseURL      string
	APIKey       string
	Model        string
	PollInterval time.Duration
	MaxWait      time.Duration
}

var client = http.Client{}

func NewGateway() *Gateway {
	return &Gateway{
		BaseURL:      config.CLASSIFIER_BASE_URL,
		APIKey:       config.CLASSIFIER_API_KEY,
		Model:        config.CLASSIFIER_MODEL,
		PollInterval: time.Duration(config.CLASSIFIER_POLL_INTERVAL * float64(time.Second)),
		MaxWait:      time.Duration(config.CLASSIFIER_MAX_WAIT * float64(time.Second)),
	}
}

type remoteFile struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	State    string `json:"state"`
	MimeType string `json:"mimeType"`
}

func (g *Gateway) Classify(localPath, mimeType string, progress func(int)) (Verdict, error) {
	if progress == nil {
		progress = func(int) {}
	}
	file, err := g.uploadFile(localPath, mimeType)
	if err != nil {
		return Verdict{}, err
	}
	// Cleanup is best-effort whatever happens next
	defer func() {
		if err := g.deleteFile(file.Name); err != nil {
			log.Printf("[classifier] cannot delete remote file %s: %v", file.Name, err)
		}
	}()
	progress(30)

	file, err = g.waitUntilReady(file)
	if err != nil {
		return Verdict{}, err
	}
	progress(60)

	progress(80)
	text, err := g.generateVerdict(file)
	if err != nil {
		return Verdict{}, err
	}
	return ParseVerdict(text)
}

// uploadFile pushes the local file to the remote file store using the
// resumable upload protocol: a "start" request returning an upload URL,
// then a single "upload, finalize" request streaming the bytes.
func (g *Gateway) uploadFile(localPath, mimeType string) (*remoteFile, error) {
	fi, err := os.Stat(localPath)
	if err != nil {
		return nil, err
	}
	meta := bytes.Buffer{}
	json.NewEncoder(&meta).Encode(map[string]interface{}{
		"file": map[string]string{"display_name": "Video-" + fi.Name()},
	})
	req, err := http.NewRequest("POST", g.BaseURL+"/upload/v1beta/files?key="+g.APIKey, &meta)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.FormatInt(fi.Size(), 10))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", mimeType)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	uploadURL := resp.Header.Get("X-Goog-Upload-URL")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || uploadURL == "" {
		return nil, fmt.Errorf("classifier upload start failed, status: %d", resp.StatusCode)
	}

	data, err := os.Open(localPath)
	if err != nil {
		return nil, err
	}
	defer data.Close()
	req, err = http.NewRequest("POST", uploadURL, data)
	if err != nil {
		return nil, err
	}
	req.ContentLength = fi.Size()
	req.Header.Set("X-Goog-Upload-Offset", "0")
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	resp, err = client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier upload failed, status: %d", resp.StatusCode)
	}
	result := struct {
		File remoteFile `json:"file"`
	}{}
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result.File, nil
}

// waitUntilReady polls the remote state at a fixed interval until it leaves
// PROCESSING. A file stuck in PROCESSING beyond MaxWait counts as failed -
// the remote side gives no such bound itself.
func (g *Gateway) waitUntilReady(file *remoteFile) (*remoteFile, error) {
	deadline := time.Now().Add(g.MaxWait)
	for file.State == "PROCESSING" {
		if time.Now().After(deadline) {
			return nil, ErrUpstreamFailed
		}
		time.Sleep(g.PollInterval)
		current, err := g.getFile(file.Name)
		if err != nil {
			return nil, err
		}
		current.URI = pick(current.URI, file.URI)
		current.MimeType = pick(current.MimeType, file.MimeType)
		current.Name = file.Name
		file = current
	}
	if file.State == "FAILED" {
		return nil, ErrUpstreamFailed
	}
	return file, nil
}

func (g *Gateway) getFile(name string) (*remoteFile, error) {
	resp, err := client.Get(g.BaseURL + "/v1beta/" + name + "?key=" + g.APIKey)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier file status failed, status: %d", resp.StatusCode)
	}
	result := &remoteFile{}
	if err = json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, err
	}
	return result, nil
}

// generateVerdict asks the model for the two-field JSON answer over the
// remote file. This call has unbounded latency.
func (g *Gateway) generateVerdict(file *remoteFile) (string, error) {
	body := bytes.Buffer{}
	json.NewEncoder(&body).Encode(map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"file_data": map[string]string{"mime_type": file.MimeType, "file_uri": file.URI}},
					{"text": verdictPrompt},
				},
			},
		},
	})
	resp, err := client.Post(
		g.BaseURL+"/v1beta/models/"+g.Model+":generateContent?key="+g.APIKey,
		"application/json", &body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		buf := bytes.Buffer{}
		io.Copy(&buf, resp.Body)
		log.Printf("[classifier] generate error, status: %d, %s", resp.StatusCode, buf.String())
		return "", ErrUpstreamFailed
	}
	result := struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}{}
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", ErrMalformedVerdict
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

func (g *Gateway) deleteFile(name string) error {
	req, err := http.NewRequest("DELETE", g.BaseURL+"/v1beta/"+name+"?key="+g.APIKey, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status: %d", resp.StatusCode)
	}
	return nil
}

func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
