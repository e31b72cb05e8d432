package types

import "time"

// Defaults applied when a configuration field is left empty.
const (
	DefaultWorkingFolder = "images"
	DefaultOutputPath    = "output.pdf"
	DefaultExtension     = ".png"
	DefaultUserAgent     = "pagebinder/0.1"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pagebinder/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// HarvestConfig holds settings for the harvest stage.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	// Folder is the working folder that receives downloaded images.
	Folder string `json:"folder" yaml:"folder"`

	// BaseURL resolves relative image sources. Empty leaves them untouched.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Concurrency bounds parallel downloads (default 1, strictly sequential).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// Extension is appended to the page number to name each file (default ".png").
	Extension string `json:"extension" yaml:"extension"`

	// Progress draws a progress bar on stderr while downloading.
	Progress bool `json:"progress" yaml:"progress"`
}

// WithDefaults returns a copy of c with empty fields filled in.
func (c HarvestConfig) WithDefaults() HarvestConfig {
	if c.Folder == "" {
		c.Folder = DefaultWorkingFolder
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// AssemblyConfig holds settings for the assembly stage.
type AssemblyConfig struct {
	// OutputPath is the PDF file to write.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// CreationDate is stamped into the document info dictionary. The zero
	// value is replaced by the Unix epoch so repeated runs are byte-identical.
	CreationDate time.Time `json:"creation_date,omitempty" yaml:"creation_date,omitempty"`

	// Title is the optional document title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// PipelineConfig groups all stage configurations for a full run.
type PipelineConfig struct {
	// WorkingFolder is reset at the start of a run and receives downloaded images.
	WorkingFolder string `json:"working_folder" yaml:"working_folder"`

	// OutputPath is the assembled PDF.
	OutputPath string `json:"output_path" yaml:"output_path"`

	Harvest  HarvestConfig  `json:"harvest" yaml:"harvest"`
	Assembly AssemblyConfig `json:"assembly" yaml:"assembly"`

	// LedgerPath is an optional SQLite database recording each run.
	LedgerPath string `json:"ledger,omitempty" yaml:"ledger,omitempty"`
}

// Normalize fills defaults and propagates WorkingFolder and OutputPath into
// the stage configs so each stage sees the same paths.
func (c PipelineConfig) Normalize() PipelineConfig {
	if c.WorkingFolder == "" {
		c.WorkingFolder = DefaultWorkingFolder
	}
	if c.OutputPath == "" {
		c.OutputPath = DefaultOutputPath
	}
	c.Harvest.Folder = c.WorkingFolder
	c.Harvest = c.Harvest.WithDefaults()
	c.Assembly.OutputPath = c.OutputPath
	return c
}
