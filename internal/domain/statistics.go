package domain

import (
	"math"
	"time"
)

// OptionStatistic is the tally for one option of one question on one image.
type OptionStatistic struct {
	OptionID   int64   `json:"optionId"`
	OptionText string  `json:"optionText"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// QuestionStatistic groups option tallies for a question on one image.
type QuestionStatistic struct {
	QuestionID   int64             `json:"questionId"`
	QuestionKey  string            `json:"questionKey"`
	QuestionText string            `json:"questionText"`
	TotalVotes   int64             `json:"totalVotes"`
	Options      []OptionStatistic `json:"options"`
}

// ImageStatistic groups question statistics for one image.
type ImageStatistic struct {
	ImageName string              `json:"imageName"`
	ImagePath string              `json:"imagePath,omitempty"`
	Questions []QuestionStatistic `json:"questions"`
}

// CategoryStatistic groups image statistics for one category.
type CategoryStatistic struct {
	CategoryID   int64            `json:"categoryId"`
	CategoryName string           `json:"categoryName"`
	ConfigLinkID int64            `json:"configLinkId"`
	Images       []ImageStatistic `json:"images"`
}

// Statistics is the full aggregate served by the statistics endpoints.
type Statistics struct {
	GeneratedAt time.Time           `json:"generatedAt"`
	Categories  []CategoryStatistic `json:"categories"`
}

// Percentage returns count as a percentage of total, rounded to two decimals.
// A zero or negative total yields 0.
func Percentage(count, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(count)*10000/float64(total)) / 100
}

// TrendWindows are the day windows of the unique respondent trend. Zero is all time.
var TrendWindows = []int{1, 3, 7, 30, 0}

// TrendBucket is the number of unique respondents seen within Days days.
type TrendBucket struct {
	Label       string `json:"label"`
	Days        int    `json:"days"`
	UniqueUsers int64  `json:"uniqueUsers"`
}

// Trend is the five-bucket unique respondent series for a category.
type Trend struct {
	ConfigLinkID int64         `json:"configLinkId"`
	Buckets      []TrendBucket `json:"buckets"`
}

// ExportFile is a rendered statistics export.
type ExportFile struct {
	FileName    string
	ContentType string
	Body        []byte
}
