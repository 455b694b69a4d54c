package question

import (
	"fmt"
	"time"
)

const (
	MaxContentLen = 200
	DateListLimit = 30
)

type Sort string

const (
	SortLatest Sort = "latest"
	SortLikes  Sort = "likes"
)

// ParseSort falls back to SortLatest for anything it does not know.
func ParseSort(s string) Sort {
	if Sort(s) == SortLikes {
		return SortLikes
	}
	return SortLatest
}

type Question struct {
	ID          int       `json:"id" db:"id"`
	StudentID   int       `json:"-" db:"student_id"`
	Content     string    `json:"content" db:"content"`
	CreatedDate string    `json:"created_date" db:"created_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	IsDeleted   bool      `json:"is_deleted" db:"is_deleted"`
}

// View is a question as listed to students.
type View struct {
	ID          int       `json:"id" db:"id"`
	StudentID   int       `json:"-" db:"student_id"`
	Content     string    `json:"content" db:"content"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	CreatedDate string    `json:"created_date" db:"created_date"`
	Author      string    `json:"author" db:"-"`
	Grade       int       `json:"grade" db:"grade"`
	ClassNum    int       `json:"class_num" db:"class_num"`
	StudentNum  int       `json:"-" db:"student_num"`
	Name        string    `json:"-" db:"name"`
	LikeCount   int       `json:"like_count" db:"like_count"`
	LikedByMe   bool      `json:"liked_by_me" db:"liked_by_me"`
	IsMine      bool      `json:"is_mine" db:"-"`
}

// AdminView is a question as listed to admins, deleted ones included.
type AdminView struct {
	ID         int       `json:"id" db:"id"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	Author     string    `json:"author" db:"-"`
	Grade      int       `json:"-" db:"grade"`
	ClassNum   int       `json:"-" db:"class_num"`
	StudentNum int       `json:"-" db:"student_num"`
	Name       string    `json:"-" db:"name"`
	LikeCount  int       `json:"like_count" db:"like_count"`
	IsDeleted  bool      `json:"is_deleted" db:"is_deleted"`
}

func (v *AdminView) setAuthor() {
	v.Author = fmt.Sprintf("%d-%d %s (No. %d)", v.Grade, v.ClassNum, v.Name, v.StudentNum)
}

type DateCount struct {
	Date  string `json:"date" db:"created_date"`
	Count int    `json:"count" db:"question_count"`
}

// Listing is one day of questions as seen by a student.
type Listing struct {
	Questions          []View `json:"questions"`
	AlreadyPostedToday bool   `json:"already_posted_today"`
	Date               string `json:"date"`
	TotalCount         int    `json:"total_count"`
}

type AdminListing struct {
	Questions []AdminView `json:"questions"`
	Date      string      `json:"date"`
}

type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}
