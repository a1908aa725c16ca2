// Package mailer delivers OTP mails off the request path. Signup enqueues and
// returns immediately; a single worker drains the queue and failures are
// logged and counted, never propagated back to the caller.
package mailer

import (
	"fmt"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"

	"studenthub/internal/metrics"
)

// Notifier is the fire-and-forget capability the auth service depends on.
type Notifier interface {
	EnqueueOTP(email, otp string)
}

type otpMail struct {
	email string
	otp   string
}

// Mailer sends OTP mails through SMTP via a buffered queue.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	queue  chan otpMail
	done   chan struct{}
	log    *logrus.Logger
}

// New creates a Mailer and starts its worker goroutine.
func New(host string, port int, username, password, from string, log *logrus.Logger) *Mailer {
	m := &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		queue:  make(chan otpMail, 64),
		done:   make(chan struct{}),
		log:    log,
	}
	go m.worker()
	return m
}

// EnqueueOTP hands the mail off to the worker without blocking. A full queue
// drops the mail with a log line so signup stays available.
func (m *Mailer) EnqueueOTP(email, otp string) {
	select {
	case m.queue <- otpMail{email: email, otp: otp}:
	default:
		metrics.IncOTPEmail("dropped")
		m.log.WithField("email", email).Warn("otp mail queue full, dropping")
	}
}

// Close stops the worker after the queue drains.
func (m *Mailer) Close() {
	close(m.queue)
	<-m.done
}

func (m *Mailer) worker() {
	defer close(m.done)
	for mail := range m.queue {
		msg := gomail.NewMessage()
		msg.SetHeader("From", m.from)
		msg.SetHeader("To", mail.email)
		msg.SetHeader("Subject", "StudentHub Email Verification OTP")
		msg.SetBody("text/plain", fmt.Sprintf("Your OTP for StudentHub is: %s", mail.otp))

		if err := m.dialer.DialAndSend(msg); err != nil {
			// 失败只记录，不回滚已创建的待验证注册
			metrics.IncOTPEmail("error")
			m.log.WithField("email", mail.email).WithError(err).Error("send otp mail failed")
			continue
		}
		metrics.IncOTPEmail("sent")
	}
}
