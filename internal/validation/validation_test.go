package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"tourismcam/internal/models"
)

func TestValidate_Register(t *testing.T) {
	tests := []struct {
		name    string
		req     models.RegisterRequest
		wantErr string
	}{
		{"valid", models.RegisterRequest{Email: "a@b.co", Password: "secret", Name: "Jo"}, ""},
		{"missing email", models.RegisterRequest{Password: "secret", Name: "Jo"}, "Email is required"},
		{"bad email", models.RegisterRequest{Email: "not-an-email", Password: "secret", Name: "Jo"}, "Please enter a valid email address"},
		{"short password", models.RegisterRequest{Email: "a@b.co", Password: "12345", Name: "Jo"}, "Password must be at least 6 characters"},
		{"short name", models.RegisterRequest{Email: "a@b.co", Password: "secret", Name: "J"}, "Name must be at least 2 characters"},
		{"bad username", models.RegisterRequest{Email: "a@b.co", Password: "secret", Name: "Jo", Username: "no spaces"}, "Username may only contain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_NameCountsRunes(t *testing.T) {
	// Two runes, four bytes.
	assert.NoError(t, Validate(models.RegisterRequest{Email: "a@b.co", Password: "secret", Name: "Éé"}))
}

func TestValidate_CreatePost(t *testing.T) {
	ok := models.CreatePostRequest{ImageURL: "https://cdn.example.com/p.jpg", Tags: []string{"cameroon"}}
	assert.NoError(t, Validate(ok))

	relative := models.CreatePostRequest{ImageURL: "/images/limbe.jpg"}
	assert.NoError(t, Validate(relative))

	missing := models.CreatePostRequest{Caption: "no image"}
	assert.EqualError(t, Validate(missing), "Image url is required")

	badStatus := models.CreatePostRequest{ImageURL: "/x.jpg", Status: "hidden"}
	assert.EqualError(t, Validate(badStatus), "Status must be one of: draft, published, archived")

	tooMany := models.CreatePostRequest{ImageURL: "/x.jpg", Tags: strings.Split("a,b,c,d,e,f,g,h,i,j,k", ",")}
	assert.EqualError(t, Validate(tooMany), "Tags must contain at most 10 items")

	emptyTag := models.CreatePostRequest{ImageURL: "/x.jpg", Tags: []string{""}}
	assert.Error(t, Validate(emptyTag))
}

func TestValidate_ProfilePointers(t *testing.T) {
	assert.NoError(t, Validate(models.UpdateProfileRequest{}))

	short := "J"
	assert.EqualError(t, Validate(models.UpdateProfileRequest{Name: &short}), "Name must be at least 2 characters")
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("demo@example.com"))
	assert.True(t, IsEmail(" demo@example.com "))
	assert.False(t, IsEmail("demo@example"))
	assert.False(t, IsEmail("@."))
}

func TestIsImageRef(t *testing.T) {
	assert.True(t, IsImageRef("http://x/y.jpg"))
	assert.True(t, IsImageRef("/uploads/y.jpg"))
	assert.False(t, IsImageRef("//evil.example/y.jpg"))
	assert.False(t, IsImageRef("ftp://x/y.jpg"))
}
