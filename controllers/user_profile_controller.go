package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"flamematch_server/models"
	"flamematch_server/services"
)

// UserProfileController handles requests related to user profiles
type UserProfileController struct {
	UserProfileService  *services.UserProfileService
	VerificationService *services.VerificationService
}

// NewUserProfileController creates a new instance of UserProfileController
func NewUserProfileController(profiles *services.UserProfileService, verification *services.VerificationService) *UserProfileController {
	return &UserProfileController{UserProfileService: profiles, VerificationService: verification}
}

type createProfileRequest struct {
	Name       string           `json:"name" validate:"required,max=60"`
	Email      string           `json:"email" validate:"omitempty,email"`
	Age        int              `json:"age" validate:"required"`
	Gender     string           `json:"gender" validate:"required,oneof=male female"`
	LookingFor string           `json:"lookingFor" validate:"omitempty,oneof=male female everyone"`
	MinAge     int              `json:"minAge"`
	MaxAge     int              `json:"maxAge"`
	Bio        string           `json:"bio" validate:"max=500"`
	Location   *models.Location `json:"location"`
}

// CreateUserProfile registers the caller's profile.
func (c *UserProfileController) CreateUserProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := c.UserProfileService.CreateProfile(r.Context(), sessionFrom(r), services.NewProfile{
		Name:       req.Name,
		Email:      req.Email,
		Age:        req.Age,
		Gender:     req.Gender,
		LookingFor: req.LookingFor,
		MinAge:     req.MinAge,
		MaxAge:     req.MaxAge,
		Bio:        req.Bio,
		Location:   req.Location,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Profile added successfully",
		"profile": profile,
	})
}

// GetMyProfile returns the caller's own profile.
func (c *UserProfileController) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := c.UserProfileService.Me(r.Context(), sessionFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// GetUserProfileByID handles fetching a user profile by ID
func (c *UserProfileController) GetUserProfileByID(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	profile, err := c.UserProfileService.GetProfile(r.Context(), sessionFrom(r), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	Name       *string `json:"name" validate:"omitempty,max=60"`
	Age        *int    `json:"age"`
	Gender     *string `json:"gender" validate:"omitempty,oneof=male female"`
	LookingFor *string `json:"lookingFor" validate:"omitempty,oneof=male female everyone"`
	MinAge     *int    `json:"minAge"`
	MaxAge     *int    `json:"maxAge"`
	Bio        *string `json:"bio" validate:"omitempty,max=500"`
}

// UpdateUserProfile applies a partial update to the caller's profile.
func (c *UserProfileController) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := c.UserProfileService.UpdateProfile(r.Context(), sessionFrom(r), services.ProfileChanges{
		Name:       req.Name,
		Age:        req.Age,
		Gender:     req.Gender,
		LookingFor: req.LookingFor,
		MinAge:     req.MinAge,
		MaxAge:     req.MaxAge,
		Bio:        req.Bio,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"profile": profile,
	})
}

type locationRequest struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
}

// UpdateLocation stores the caller's resolved location.
func (c *UserProfileController) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := c.UserProfileService.UpdateLocation(r.Context(), sessionFrom(r), models.Location{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		City:      req.City,
		Country:   req.Country,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type deviceTokenRequest struct {
	Token string `json:"fcmToken" validate:"required"`
}

// UpdateDeviceToken stores the push token of the caller's device.
func (c *UserProfileController) UpdateDeviceToken(w http.ResponseWriter, r *http.Request) {
	var req deviceTokenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.UserProfileService.UpdateDeviceToken(r.Context(), sessionFrom(r), req.Token); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Device token updated"})
}

type mediaKeyRequest struct {
	Key string `json:"key" validate:"required"`
}

// AddPhoto attaches an uploaded photo to the caller's profile.
func (c *UserProfileController) AddPhoto(w http.ResponseWriter, r *http.Request) {
	var req mediaKeyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := c.UserProfileService.AddPhoto(r.Context(), sessionFrom(r), req.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// SetVoiceVibe attaches an uploaded voice clip to the caller's profile.
func (c *UserProfileController) SetVoiceVibe(w http.ResponseWriter, r *http.Request) {
	var req mediaKeyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := c.UserProfileService.SetVoiceVibe(r.Context(), sessionFrom(r), req.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type planRequest struct {
	Plan string `json:"plan" validate:"omitempty,oneof=gold platinum"`
}

// SetPremiumPlan switches the caller's plan; an empty plan cancels premium.
func (c *UserProfileController) SetPremiumPlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := c.UserProfileService.SetPremiumPlan(r.Context(), sessionFrom(r), req.Plan)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// GetPlans lists the premium plans on offer.
func (c *UserProfileController) GetPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.PremiumPlans)
}

// VerifySelfie compares an uploaded selfie with the caller's profile photo.
func (c *UserProfileController) VerifySelfie(w http.ResponseWriter, r *http.Request) {
	var req mediaKeyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := c.VerificationService.VerifySelfie(r.Context(), sessionFrom(r), req.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
