package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signupAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studenthub_signup_attempts_total",
		Help: "Number of signup attempts grouped by status.",
	}, []string{"status"})

	verifyAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studenthub_verify_attempts_total",
		Help: "Number of email verification attempts grouped by status.",
	}, []string{"status"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studenthub_login_attempts_total",
		Help: "Number of login attempts grouped by status.",
	}, []string{"status"})

	otpEmails = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studenthub_otp_emails_total",
		Help: "Number of OTP mails grouped by delivery status.",
	}, []string{"status"})

	imageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studenthub_image_uploads_total",
		Help: "Number of image uploads to the object store grouped by status.",
	}, []string{"status"})
)

// IncSignup increments the signup counter.
func IncSignup(status string) {
	signupAttempts.WithLabelValues(status).Inc()
}

// IncVerify increments the email verification counter.
func IncVerify(status string) {
	verifyAttempts.WithLabelValues(status).Inc()
}

// IncLogin increments the login counter.
func IncLogin(status string) {
	loginAttempts.WithLabelValues(status).Inc()
}

// IncOTPEmail increments the OTP mail counter.
func IncOTPEmail(status string) {
	otpEmails.WithLabelValues(status).Inc()
}

// IncImageUpload increments the image upload counter.
func IncImageUpload(status string) {
	imageUploads.WithLabelValues(status).Inc()
}
