// ABOUTME: Data models for CRM entities exposed by the GraphQL API
// ABOUTME: Defines Company, Contact, Deal, Task, User, Event, and stage structs
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Company struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	TotalRevenue decimal.Decimal `json:"totalRevenue,omitempty"`
	Industry     string          `json:"industry,omitempty"`
	CompanySize  string          `json:"companySize,omitempty"`
	BusinessType string          `json:"businessType,omitempty"`
	Country      string          `json:"country,omitempty"`
	Website      string          `json:"website,omitempty"`
	AvatarURL    string          `json:"avatarUrl,omitempty"`
	SalesOwnerID string          `json:"salesOwnerId,omitempty"`
	CreatedAt    *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time      `json:"updatedAt,omitempty"`
}

type Contact struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	JobTitle     string        `json:"jobTitle,omitempty"`
	Timezone     string        `json:"timezone,omitempty"`
	AvatarURL    string        `json:"avatarUrl,omitempty"`
	Status       ContactStatus `json:"status"`
	CompanyID    *string       `json:"companyId,omitempty"`
	SalesOwnerID string        `json:"salesOwnerId,omitempty"`
	CreatedAt    *time.Time    `json:"createdAt,omitempty"`
}

type Deal struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Value          decimal.Decimal `json:"value"`
	StageID        *string         `json:"stageId"`
	CompanyID      string          `json:"companyId"`
	DealOwnerID    string          `json:"dealOwnerId,omitempty"`
	DealContactID  *string         `json:"dealContactId,omitempty"`
	CloseDateMonth int             `json:"closeDateMonth,omitempty"`
	CloseDateYear  int             `json:"closeDateYear,omitempty"`
	CreatedAt      *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time      `json:"updatedAt,omitempty"`
}

type ChecklistItem struct {
	Title   string `json:"title"`
	Checked bool   `json:"checked"`
}

type Task struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
	Completed   bool            `json:"completed"`
	StageID     *string         `json:"stageId"`
	UserIDs     []string        `json:"userIds,omitempty"`
	Checklist   []ChecklistItem `json:"checklist,omitempty"`
	CreatedAt   *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	JobTitle  string `json:"jobTitle,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Color       string     `json:"color,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

type DealStage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type TaskStage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Deal stage titles used for display grouping.
const (
	StageUnassigned  = "UNASSIGNED"
	StageNew         = "NEW"
	StageFollowUp    = "FOLLOW-UP"
	StageUnderReview = "UNDER REVIEW"
	StageDemo        = "DEMO"
	StageWon         = "WON"
	StageLost        = "LOST"
)

// Unassigned is the pseudo stage id for records whose stageId is null.
const Unassigned = "unassigned"
