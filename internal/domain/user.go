package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type VaccinationStatus string

const (
	StatusNone          VaccinationStatus = "none"
	StatusFirstDoseDone VaccinationStatus = "first_dose_completed"
	StatusAllCompleted  VaccinationStatus = "all_completed"
)

func ParseVaccinationStatus(s string) (VaccinationStatus, bool) {
	switch VaccinationStatus(s) {
	case StatusNone, StatusFirstDoseDone, StatusAllCompleted:
		return VaccinationStatus(s), true
	default:
		return "", false
	}
}

// Valid user roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Phone             int64             `json:"phone"`
	Age               int               `json:"age"`
	Pincode           int64             `json:"pincode"`
	Aadhaar           int64             `json:"aadhaar"`
	Email             string            `json:"email,omitempty"`
	PasswordHash      string            `json:"-"`
	VaccinationStatus VaccinationStatus `json:"vaccination_status"`
	Role              string            `json:"role"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// IsAdmin is the single authorization predicate for admin-only queries.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type RegisterRequest struct {
	Name              string `json:"name"`
	Phone             string `json:"phone"`
	Age               int    `json:"age"`
	Pincode           string `json:"pincode"`
	Aadhaar           string `json:"aadhar"`
	Email             string `json:"email,omitempty"`
	Password          string `json:"password"`
	VaccinationStatus string `json:"vaccination_status"`
}

type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        *UserInfo `json:"user"`
}

type UserInfo struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Phone             int64             `json:"phone"`
	VaccinationStatus VaccinationStatus `json:"vaccination_status"`
	Role              string            `json:"role"`
}

// UserFilter narrows admin user listings. Nil fields are unconstrained.
type UserFilter struct {
	Age               *int
	Pincode           *int64
	VaccinationStatus *VaccinationStatus
	Role              *string
}

var (
	phoneRegex   = regexp.MustCompile(`^\d{10}$`)
	pincodeRegex = regexp.MustCompile(`^\d{6}$`)
	aadhaarRegex = regexp.MustCompile(`^\d{12}$`)
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Pincode = strings.TrimSpace(r.Pincode)
	r.Aadhaar = strings.TrimSpace(r.Aadhaar)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.VaccinationStatus == "" {
		r.VaccinationStatus = string(StatusNone)
	}
}

func (r *RegisterRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !phoneRegex.MatchString(r.Phone) {
		return fmt.Errorf("phone must be a 10 digit number")
	}
	if r.Age < 18 || r.Age > 110 {
		return fmt.Errorf("age must be between 18 and 110")
	}
	if !pincodeRegex.MatchString(r.Pincode) {
		return fmt.Errorf("pincode must be a 6 digit number")
	}
	if !aadhaarRegex.MatchString(r.Aadhaar) {
		return fmt.Errorf("aadhar must be a 12 digit number")
	}
	if r.Email != "" && !emailRegex.MatchString(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if _, ok := ParseVaccinationStatus(r.VaccinationStatus); !ok {
		return fmt.Errorf("invalid vaccination status")
	}
	return nil
}

// PhoneNumber returns the validated phone as an integer key.
func (r *RegisterRequest) PhoneNumber() int64 {
	n, _ := strconv.ParseInt(r.Phone, 10, 64)
	return n
}

func (r *RegisterRequest) PincodeNumber() int64 {
	n, _ := strconv.ParseInt(r.Pincode, 10, 64)
	return n
}

func (r *RegisterRequest) AadhaarNumber() int64 {
	n, _ := strconv.ParseInt(r.Aadhaar, 10, 64)
	return n
}

func (r *LoginRequest) Normalize() {
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r *LoginRequest) Validate() error {
	if !phoneRegex.MatchString(r.Phone) {
		return fmt.Errorf("phone must be a 10 digit number")
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

func (r *LoginRequest) PhoneNumber() int64 {
	n, _ := strconv.ParseInt(r.Phone, 10, 64)
	return n
}

// ToUserInfo converts User to UserInfo (without sensitive data)
func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:                u.ID,
		Name:              u.Name,
		Phone:             u.Phone,
		VaccinationStatus: u.VaccinationStatus,
		Role:              u.Role,
	}
}
