package narrate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.elevenlabs.io"

// Client talks to the ElevenLabs text-to-speech API.
type Client struct {
	apiKey        string
	baseURL       string
	voiceID       string
	model         string
	settings      VoiceSettings
	maxChunkChars int
	http          *http.Client
}

type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
}

func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Style:           0.0,
	}
}

type Options struct {
	BaseURL       string
	VoiceID       string
	Model         string
	Settings      VoiceSettings
	MaxChunkChars int
}

func NewClient(apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	voiceID := opts.VoiceID
	if voiceID == "" {
		voiceID = "EXAVITQu4vr4xnSDxMaL"
	}
	model := opts.Model
	if model == "" {
		model = "eleven_multilingual_v2"
	}
	settings := opts.Settings
	if settings == (VoiceSettings{}) {
		settings = DefaultVoiceSettings()
	}
	maxChunkChars := opts.MaxChunkChars
	if maxChunkChars <= 0 {
		maxChunkChars = 2500
	}

	return &Client{
		apiKey:        apiKey,
		baseURL:       baseURL,
		voiceID:       voiceID,
		model:         model,
		settings:      settings,
		maxChunkChars: maxChunkChars,
		http:          &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// WordTimestamp anchors one spoken word on the audio timeline.
type WordTimestamp struct {
	Word  string
	Start time.Duration
	End   time.Duration
}

// Speech is synthesized narration. Words is empty when only the plain
// endpoint succeeded; callers must check HasTimestamps.
type Speech struct {
	Audio         []byte
	Words         []WordTimestamp
	HasTimestamps bool
	Duration      time.Duration
}

// Synthesize renders text to speech. Long texts are split at sentence
// boundaries and synthesized chunk by chunk; word timestamps are
// shifted by the accumulated duration of preceding chunks. If the
// timestamp endpoint fails for any chunk, the whole synthesis falls
// back to plain audio without timestamps.
func (c *Client) Synthesize(ctx context.Context, text string) (*Speech, error) {
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}

	chunks := SplitText(text, c.maxChunkChars)

	var (
		audio  bytes.Buffer
		words  []WordTimestamp
		offset time.Duration
	)

	timestamped := true
	for _, chunk := range chunks {
		speech, err := c.speakWithTimestamps(ctx, chunk)
		if err != nil {
			timestamped = false
			break
		}

		audio.Write(speech.Audio)
		for _, w := range speech.Words {
			w.Start += offset
			w.End += offset
			words = append(words, w)
		}
		offset += speech.Duration
	}

	if timestamped {
		return &Speech{
			Audio:         audio.Bytes(),
			Words:         words,
			HasTimestamps: true,
			Duration:      offset,
		}, nil
	}

	// fallback: plain endpoint, no timestamps
	audio.Reset()
	for _, chunk := range chunks {
		data, err := c.speak(ctx, chunk)
		if err != nil {
			return nil, err
		}
		audio.Write(data)
	}

	return &Speech{
		Audio:         audio.Bytes(),
		HasTimestamps: false,
	}, nil
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

type alignment struct {
	Characters            []string  `json:"characters"`
	CharacterStartsSecond []float64 `json:"character_start_times_seconds"`
	CharacterEndsSecond   []float64 `json:"character_end_times_seconds"`
}

type timestampResponse struct {
	AudioBase64 string    `json:"audio_base64"`
	Alignment   alignment `json:"alignment"`
}

func (c *Client) speakWithTimestamps(ctx context.Context, text string) (*Speech, error) {
	url := fmt.Sprintf(
		"%s/v1/text-to-speech/%s/with-timestamps?output_format=mp3_44100_128",
		c.baseURL,
		c.voiceID,
	)

	body, err := c.post(ctx, url, speechRequest{
		Text:          text,
		ModelID:       c.model,
		VoiceSettings: c.settings,
	})
	if err != nil {
		return nil, err
	}

	var resp timestampResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode timestamp response: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio payload: %w", err)
	}

	words := wordsFromAlignment(resp.Alignment)

	var duration time.Duration
	if n := len(resp.Alignment.CharacterEndsSecond); n > 0 {
		duration = secondsToDuration(resp.Alignment.CharacterEndsSecond[n-1])
	}

	return &Speech{
		Audio:         audio,
		Words:         words,
		HasTimestamps: true,
		Duration:      duration,
	}, nil
}

func (c *Client) speak(ctx context.Context, text string) ([]byte, error) {
	url := fmt.Sprintf(
		"%s/v1/text-to-speech/%s?output_format=mp3_44100_128",
		c.baseURL,
		c.voiceID,
	)

	return c.post(ctx, url, speechRequest{
		Text:          text,
		ModelID:       c.model,
		VoiceSettings: c.settings,
	})
}

// Voice is an entry from the voices listing.
type Voice struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/v1/voices",
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, string(body))
	}

	var payload struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode voices response: %w", err)
	}

	return payload.Voices, nil
}

func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, string(body))
	}

	return io.ReadAll(resp.Body)
}

// wordsFromAlignment folds per-character timing into word timestamps.
// Whitespace characters close the current word.
func wordsFromAlignment(a alignment) []WordTimestamp {
	var (
		words   []WordTimestamp
		current []byte
		start   float64
		end     float64
		open    bool
	)

	flush := func() {
		if !open {
			return
		}
		words = append(words, WordTimestamp{
			Word:  string(current),
			Start: secondsToDuration(start),
			End:   secondsToDuration(end),
		})
		current = current[:0]
		open = false
	}

	for i, ch := range a.Characters {
		if i >= len(a.CharacterStartsSecond) || i >= len(a.CharacterEndsSecond) {
			break
		}
		if ch == " " || ch == "\n" || ch == "\t" {
			flush()
			continue
		}
		if !open {
			start = a.CharacterStartsSecond[i]
			open = true
		}
		end = a.CharacterEndsSecond[i]
		current = append(current, ch...)
	}
	flush()

	return words
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
