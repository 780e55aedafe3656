package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewID returns a fresh opaque identifier
func NewID() string {
	return uuid.NewString()
}

func ensureID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}

// ============================================================
// Users
// ============================================================

// User represents users table
type User struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Email       string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password    string    `gorm:"size:255;not null" json:"-"`
	PhoneNumber string    `gorm:"size:30" json:"phoneNumber"`
	Role        string    `gorm:"size:20;not null;index" json:"role"`
	ZoneID      string    `gorm:"size:36;index" json:"zoneId,omitempty"`
	HouseholdID string    `gorm:"size:36;index" json:"householdId,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// UserResponse DTO
type UserResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Role        string    `json:"role"`
	ZoneID      string    `json:"zoneId,omitempty"`
	HouseholdID string    `json:"householdId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		ZoneID:      u.ZoneID,
		HouseholdID: u.HouseholdID,
		CreatedAt:   u.CreatedAt,
	}
}

// ============================================================
// Zones
// ============================================================

// Zone represents a Nyumba Kumi zone
type Zone struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	LeaderID    string    `gorm:"size:36;not null;index" json:"leaderId"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"size:200;not null" json:"location"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Zone) TableName() string {
	return "zones"
}

func (z *Zone) BeforeCreate(tx *gorm.DB) error {
	ensureID(&z.ID)
	return nil
}

// ZoneResponse DTO. Households is resolved from the households table on read.
type ZoneResponse struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	LeaderID    string        `json:"leaderId"`
	Leader      *UserResponse `json:"leader,omitempty"`
	Description string        `json:"description"`
	Location    string        `json:"location"`
	Households  []string      `json:"households"`
	CreatedAt   time.Time     `json:"createdAt"`
}

func (z *Zone) ToResponse(householdIDs []string) *ZoneResponse {
	if householdIDs == nil {
		householdIDs = []string{}
	}
	return &ZoneResponse{
		ID:          z.ID,
		Name:        z.Name,
		LeaderID:    z.LeaderID,
		Description: z.Description,
		Location:    z.Location,
		Households:  householdIDs,
		CreatedAt:   z.CreatedAt,
	}
}

// ============================================================
// Households
// ============================================================

// Household represents households table
type Household struct {
	ID             string            `gorm:"primaryKey;size:36" json:"id"`
	UserID         string            `gorm:"size:36;not null;index" json:"userId"`
	Address        string            `gorm:"size:255;not null" json:"address"`
	HouseNumber    string            `gorm:"size:50;not null" json:"houseNumber"`
	NumOfResidents int               `gorm:"not null" json:"numOfResidents"`
	Longitude      float64           `json:"longitude"`
	Latitude       float64           `json:"latitude"`
	ZoneID         string            `gorm:"size:36;not null;index" json:"zoneId"`
	AverageRating  float64           `gorm:"not null;default:0" json:"averageRating"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"createdAt"`
	Members        []HouseholdMember `gorm:"foreignKey:HouseholdID" json:"-"`
}

func (Household) TableName() string {
	return "households"
}

func (h *Household) BeforeCreate(tx *gorm.DB) error {
	ensureID(&h.ID)
	return nil
}

// MemberIDs returns the user ids of the household members
func (h *Household) MemberIDs() []string {
	ids := make([]string, 0, len(h.Members))
	for _, m := range h.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// HasMember reports whether userID is listed as a member
func (h *Household) HasMember(userID string) bool {
	for _, m := range h.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// HouseholdMember links a user to the household they belong to
type HouseholdMember struct {
	HouseholdID string    `gorm:"primaryKey;size:36" json:"householdId"`
	UserID      string    `gorm:"primaryKey;size:36;index" json:"userId"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (HouseholdMember) TableName() string {
	return "household_members"
}

// GeoPoint is a GeoJSON point, coordinates are [longitude, latitude]
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// HouseholdResponse DTO
type HouseholdResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Address        string    `json:"address"`
	HouseNumber    string    `json:"houseNumber"`
	NumOfResidents int       `json:"numOfResidents"`
	Location       GeoPoint  `json:"location"`
	ZoneID         string    `json:"zoneId"`
	AverageRating  float64   `json:"averageRating"`
	Members        []string  `json:"members"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (h *Household) ToResponse() *HouseholdResponse {
	return &HouseholdResponse{
		ID:             h.ID,
		UserID:         h.UserID,
		Address:        h.Address,
		HouseNumber:    h.HouseNumber,
		NumOfResidents: h.NumOfResidents,
		Location: GeoPoint{
			Type:        "Point",
			Coordinates: [2]float64{h.Longitude, h.Latitude},
		},
		ZoneID:        h.ZoneID,
		AverageRating: h.AverageRating,
		Members:       h.MemberIDs(),
		CreatedAt:     h.CreatedAt,
	}
}

// ============================================================
// Alerts
// ============================================================

// Alert represents alerts table
type Alert struct {
	ID        string        `gorm:"primaryKey;size:36" json:"id"`
	Title     string        `gorm:"size:200;not null" json:"title"`
	Message   string        `gorm:"type:text;not null" json:"message"`
	Priority  string        `gorm:"size:20;not null;default:'medium';index" json:"priority"`
	SenderID  string        `gorm:"size:36;not null" json:"senderId"`
	ZoneID    string        `gorm:"size:36;not null;index" json:"zoneId"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty"`
	Status    string        `gorm:"size:20;not null;default:'active';index" json:"status"`
	Targets   []AlertTarget `gorm:"foreignKey:AlertID" json:"-"`
}

func (Alert) TableName() string {
	return "alerts"
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// TargetIDs returns the targeted household ids; empty means zone-wide
func (a *Alert) TargetIDs() []string {
	ids := make([]string, 0, len(a.Targets))
	for _, t := range a.Targets {
		ids = append(ids, t.HouseholdID)
	}
	return ids
}

// Targets reports whether the alert explicitly targets householdID
func (a *Alert) TargetsHousehold(householdID string) bool {
	for _, t := range a.Targets {
		if t.HouseholdID == householdID {
			return true
		}
	}
	return false
}

// SetTargets replaces the targeted households
func (a *Alert) SetTargets(householdIDs []string) {
	a.Targets = make([]AlertTarget, 0, len(householdIDs))
	for _, id := range householdIDs {
		a.Targets = append(a.Targets, AlertTarget{AlertID: a.ID, HouseholdID: id})
	}
}

// AlertTarget links an alert to a household it targets
type AlertTarget struct {
	AlertID     string `gorm:"primaryKey;size:36" json:"alertId"`
	HouseholdID string `gorm:"primaryKey;size:36;index" json:"householdId"`
}

func (AlertTarget) TableName() string {
	return "alert_targets"
}

// AlertResponse DTO
type AlertResponse struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	Priority         string     `json:"priority"`
	SenderID         string     `json:"senderId"`
	ZoneID           string     `json:"zoneId"`
	TargetHouseholds []string   `json:"targetHouseholds"`
	CreatedAt        time.Time  `json:"createdAt"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	Status           string     `json:"status"`
}

func (a *Alert) ToResponse() *AlertResponse {
	return &AlertResponse{
		ID:               a.ID,
		Title:            a.Title,
		Message:          a.Message,
		Priority:         a.Priority,
		SenderID:         a.SenderID,
		ZoneID:           a.ZoneID,
		TargetHouseholds: a.TargetIDs(),
		CreatedAt:        a.CreatedAt,
		ExpiresAt:        a.ExpiresAt,
		Status:           a.Status,
	}
}

// ============================================================
// Ratings
// ============================================================

// Rating represents ratings table.
// At most one rating per (household, rater, category).
type Rating struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	HouseholdID string    `gorm:"size:36;not null;uniqueIndex:idx_ratings_household_rater_category,priority:1" json:"householdId"`
	RaterID     string    `gorm:"size:36;not null;uniqueIndex:idx_ratings_household_rater_category,priority:2" json:"ratedBy"`
	Category    string    `gorm:"size:40;not null;default:'general';uniqueIndex:idx_ratings_household_rater_category,priority:3" json:"category"`
	Rating      int       `gorm:"not null" json:"rating"`
	Comment     string    `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Rating) TableName() string {
	return "ratings"
}

func (r *Rating) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// ============================================================
// Tasks
// ============================================================

// Task represents tasks table
type Task struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Title       string     `gorm:"size:100;not null" json:"title"`
	Description string     `gorm:"size:500;not null" json:"description"`
	AssignedBy  string     `gorm:"size:36;not null;index" json:"assignedBy"`
	AssignedTo  string     `gorm:"size:36;not null;index" json:"assignedTo"`
	DueDate     time.Time  `gorm:"not null;index" json:"dueDate"`
	Status      string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Priority    string     `gorm:"size:20;not null;default:'medium'" json:"priority"`
	Category    string     `gorm:"size:40;not null;default:'other'" json:"category"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Rating      *float64   `json:"rating,omitempty"`
	Feedback    string     `gorm:"size:300" json:"feedback,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// TaskRatingAudit keeps the previous rating and feedback every time a task is rated
type TaskRatingAudit struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	TaskID           string    `gorm:"size:36;not null;index" json:"taskId"`
	RatedBy          string    `gorm:"size:36;not null" json:"ratedBy"`
	PreviousRating   *float64  `json:"previousRating,omitempty"`
	PreviousFeedback string    `gorm:"size:300" json:"previousFeedback,omitempty"`
	NewRating        float64   `gorm:"not null" json:"newRating"`
	NewFeedback      string    `gorm:"size:300;not null" json:"newFeedback"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (TaskRatingAudit) TableName() string {
	return "task_rating_audits"
}

func (a *TaskRatingAudit) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Zone{},
		&Household{},
		&HouseholdMember{},
		&Alert{},
		&AlertTarget{},
		&Rating{},
		&Task{},
		&TaskRatingAudit{},
	)
}
