package settings

import (
	"net/url"
	"strings"
	"time"

	"masterspa/internal/models"
)

const (
	DefaultEndpoint  = "http://localhost:8082/api/genprod/spa/only"
	DefaultTimeout   = 30
	DefaultBatchSize = 100
	MinTimeout       = 5
	MaxTimeout       = 300
)

type ImportMode string

const (
	ModeCreateUpdate ImportMode = "create_update"
	ModeUpdateOnly   ImportMode = "update_only"
)

type Frequency string

const (
	FrequencyHourly     Frequency = "hourly"
	FrequencyTwiceDaily Frequency = "twicedaily"
	FrequencyDaily      Frequency = "daily"
)

// Settings is the import configuration edited from the admin API and read
// at the start of every import run.
type Settings struct {
	APIEndpoint   string               `json:"api_endpoint"`
	RequestMethod string               `json:"request_method"`
	AuthHeader    string               `json:"auth_header"`
	Timeout       int                  `json:"timeout"`
	BatchSize     int                  `json:"batch_size"`
	ImportMode    ImportMode           `json:"import_mode"`
	DeleteMissing bool                 `json:"delete_missing"`
	DryRun        bool                 `json:"dry_run"`
	ProductStatus models.ProductStatus `json:"product_status"`
	CronEnabled   bool                 `json:"cron_enabled"`
	CronFrequency Frequency            `json:"cron_frequency"`
	WebhookURL    string               `json:"webhook_url"`
}

func Defaults() Settings {
	return Settings{
		APIEndpoint:   DefaultEndpoint,
		RequestMethod: "GET",
		Timeout:       DefaultTimeout,
		BatchSize:     DefaultBatchSize,
		ImportMode:    ModeCreateUpdate,
		ProductStatus: models.ProductStatusPublish,
		CronFrequency: FrequencyDaily,
	}
}

// Sanitize normalises a submitted settings form. Every field ends up with a
// value the importer accepts; nothing is rejected.
func Sanitize(in Settings) Settings {
	out := Settings{
		APIEndpoint:   cleanURL(in.APIEndpoint),
		RequestMethod: "GET",
		AuthHeader:    strings.TrimSpace(in.AuthHeader),
		Timeout:       in.Timeout,
		BatchSize:     in.BatchSize,
		ImportMode:    ModeCreateUpdate,
		DeleteMissing: in.DeleteMissing,
		DryRun:        in.DryRun,
		ProductStatus: models.ProductStatusPublish,
		CronEnabled:   in.CronEnabled,
		CronFrequency: FrequencyDaily,
		WebhookURL:    cleanURL(in.WebhookURL),
	}

	if out.APIEndpoint == "" {
		out.APIEndpoint = DefaultEndpoint
	}
	if in.RequestMethod == "POST" {
		out.RequestMethod = "POST"
	}

	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.Timeout < MinTimeout {
		out.Timeout = MinTimeout
	}
	if out.Timeout > MaxTimeout {
		out.Timeout = MaxTimeout
	}

	if out.BatchSize <= 0 {
		out.BatchSize = DefaultBatchSize
	}

	if in.ImportMode == ModeUpdateOnly {
		out.ImportMode = ModeUpdateOnly
	}

	switch in.ProductStatus {
	case models.ProductStatusPublish, models.ProductStatusDraft, models.ProductStatusPending:
		out.ProductStatus = in.ProductStatus
	}

	switch in.CronFrequency {
	case FrequencyHourly, FrequencyTwiceDaily, FrequencyDaily:
		out.CronFrequency = in.CronFrequency
	}

	return out
}

// RequestTimeout is the feed request timeout as a duration.
func (s Settings) RequestTimeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}

func cleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.String()
}
