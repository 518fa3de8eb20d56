package domain

import (
	"io"
	"strings"
	"time"
)

// Role names double as verification token kinds.
const (
	RoleClassificationQuiz = "classification-quiz"
	RoleWebConnect         = "web-connect"
)

// ValidRole reports whether role is one a verification token can grant.
func ValidRole(role string) bool {
	return role == RoleClassificationQuiz || role == RoleWebConnect
}

// Actor is the identity attached to a request. An empty UserID means anonymous.
type Actor struct {
	UserID string
	Email  string
	Admin  bool
}

// Category is a named quiz topic. ConfigLinkID joins it to its images.
type Category struct {
	ID           int64     `json:"id"`
	CategoryName string    `json:"categoryName"`
	ConfigLinkID int64     `json:"configLinkId"`
	UserID       string    `json:"userId"`
	CreatedDate  time.Time `json:"createdDate"`
	IsActive     bool      `json:"isActive"`
	IsFeatured   bool      `json:"isFeatured"`
}

// Question is a multiple-choice question scoped to one category.
type Question struct {
	ID           int64    `json:"id"`
	QuestionKey  string   `json:"questionKey"`
	QuestionText string   `json:"questionText"`
	CategoryID   int64    `json:"categoryId"`
	Options      []Option `json:"options"`
}

// Option is an answer choice. IsCorrect is stored but never consulted.
type Option struct {
	ID         int64  `json:"id"`
	OptionText string `json:"optionText"`
	QuestionID int64  `json:"questionId"`
	IsCorrect  bool   `json:"isCorrect"`
}

// CategoryTree is the result of creating or extending a category.
type CategoryTree struct {
	Category  Category   `json:"category"`
	Questions []Question `json:"questions"`
	Created   bool       `json:"created"`
}

// CollidingKeys returns the incoming question keys that already exist or that
// repeat within incoming, in incoming order and without repeats.
func CollidingKeys(existing, incoming []Question) []string {
	taken := make(map[string]struct{}, len(existing))
	for _, q := range existing {
		taken[q.QuestionKey] = struct{}{}
	}
	reported := make(map[string]struct{})
	var dups []string
	for _, q := range incoming {
		if _, ok := taken[q.QuestionKey]; ok {
			if _, seen := reported[q.QuestionKey]; !seen {
				reported[q.QuestionKey] = struct{}{}
				dups = append(dups, q.QuestionKey)
			}
			continue
		}
		taken[q.QuestionKey] = struct{}{}
	}
	return dups
}

// ImageUpload binds a stored blob to a category through ConfigLinkID.
type ImageUpload struct {
	ID           int64     `json:"id"`
	ImageName    string    `json:"imageName"`
	FolderName   string    `json:"folderName"`
	ImagePath    string    `json:"imagePath"`
	CreatedDate  time.Time `json:"createdDate"`
	GroupID      int64     `json:"groupId"`
	ConfigLinkID int64     `json:"configLinkId"`
	UserID       string    `json:"userId"`
	IsActive     bool      `json:"isActive"`
}

// UploadBatch is the set of images stored by one upload request.
type UploadBatch struct {
	GroupID int64         `json:"groupId"`
	Images  []ImageUpload `json:"images"`
}

// File is an uploaded file as received from a client.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// ContainerName derives the blob folder for a category name.
func ContainerName(categoryName string) string {
	return strings.Join(strings.Fields(strings.ToLower(categoryName)), "-")
}

// Quiz is the payload served to quiz takers.
type Quiz struct {
	Category  Category      `json:"category"`
	Images    []ImageUpload `json:"images"`
	Questions []Question    `json:"questions"`
}

// Answer is one option choice for one question.
type Answer struct {
	QuestionID int64 `json:"questionId"`
	OptionID   int64 `json:"optionId"`
}

// AnswerSubmission carries every answer a respondent gave for one image.
type AnswerSubmission struct {
	ImageName  string
	ImagePath  string
	CategoryID int64
	Answers    []Answer
}

// SubmissionResult summarizes an accepted submission.
type SubmissionResult struct {
	ImageName       string `json:"imageName"`
	Recorded        int    `json:"recorded"`
	IsImageComplete bool   `json:"isImageComplete"`
}

// VoteKey identifies one vote counter.
type VoteKey struct {
	ConfigLinkID int64
	ImageName    string
	QuestionID   int64
	OptionID     int64
}

// VoteCount is the current value of a vote counter.
type VoteCount struct {
	VoteKey
	Count int64
}

// DeleteReport describes a cascading category delete. Blob cleanup failures do
// not fail the delete; they are listed here instead.
type DeleteReport struct {
	CategoryID      int64    `json:"categoryId"`
	ImagesDeleted   int      `json:"imagesDeleted"`
	CleanupFailures []string `json:"cleanupFailures"`
}
