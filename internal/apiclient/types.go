package apiclient

import (
	"encoding/json"

	"github.com/dgnsrekt/site_gateway/internal/forms"
)

// Envelope is the {status, data, ...} wrapper every resource endpoint returns.
type Envelope[T any] struct {
	Status  string              `json:"status"`
	Data    *T                  `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
	Code    string              `json:"code,omitempty"`
	Errors  map[string]any      `json:"errors,omitempty"`
}

// Page is a paginated list.
type Page[T any] struct {
	Results  []T     `json:"results"`
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

type BlogPost struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Content       string `json:"content"`
	Excerpt       string `json:"excerpt"`
	FeaturedImage string `json:"featured_image,omitempty"`
	Tags          []Tag  `json:"tags,omitempty"`
	Author        *User  `json:"author,omitempty"`
	AuthorName    string `json:"author_name,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
	IsPublished   bool   `json:"is_published"`
	ReadingTime   int    `json:"reading_time"`
}

type Product struct {
	ID                  int      `json:"id"`
	Name                string   `json:"name"`
	Slug                string   `json:"slug"`
	Description         string   `json:"description"`
	DetailedDescription string   `json:"detailed_description,omitempty"`
	Status              string   `json:"status"`
	StatusDisplay       string   `json:"status_display,omitempty"`
	Image               *string  `json:"image"`
	Tagline             string   `json:"tagline,omitempty"`
	TargetAudience      string   `json:"target_audience,omitempty"`
	Features            []string `json:"features,omitempty"`
	TechnologyStack     []string `json:"technology_stack,omitempty"`
	LaunchDate          *string  `json:"launch_date"`
	Order               int      `json:"order"`
}

type SocialLinks struct {
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

type TeamMember struct {
	ID                  int         `json:"id"`
	Name                string      `json:"name"`
	Slug                string      `json:"slug"`
	Role                string      `json:"role"`
	Bio                 string      `json:"bio,omitempty"`
	Photo               *string     `json:"photo"`
	SocialLinks         SocialLinks `json:"social_links"`
	SkillsList          []string    `json:"skills_list"`
	SpecializationsList []string    `json:"specializations_list,omitempty"`
	FirstName           string      `json:"first_name"`
	Initials            string      `json:"initials"`
	IsLeadership        bool        `json:"is_leadership"`
	Order               int         `json:"order"`
}

type CaseStudy struct {
	ID              int             `json:"id"`
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	Client          string          `json:"client"`
	Problem         string          `json:"problem,omitempty"`
	Solution        string          `json:"solution,omitempty"`
	Impact          string          `json:"impact,omitempty"`
	Image           *string         `json:"image"`
	Industry        string          `json:"industry,omitempty"`
	ProjectDuration string          `json:"project_duration,omitempty"`
	SummaryMetrics  json.RawMessage `json:"summary_metrics,omitempty"`
	Metrics         json.RawMessage `json:"metrics,omitempty"`
	IsFeatured      bool            `json:"is_featured,omitempty"`
	CreatedAt       string          `json:"created_at"`
}

// ContactSubmission is the stored form returned by the backend.
type ContactSubmission struct {
	forms.Contact
	ID          int    `json:"id"`
	SubmittedAt string `json:"submitted_at"`
}
