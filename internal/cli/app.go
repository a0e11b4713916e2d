// Package cli is the interactive front desk of the practice: role login and
// the menus each role may use.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vet-clinic/internal/credential"
	"vet-clinic/internal/handler"
	"vet-clinic/internal/models"
	"vet-clinic/internal/scheduling"
	"vet-clinic/internal/storage"
)

var (
	errInvalidRole       = errors.New("invalid role")
	errLoginFailed       = errors.New("login failed")
	errAlreadyRegistered = errors.New("customer already exists")
)

// Config controls how the app presents itself
type Config struct {
	ClinicName string
	// Plain disables colours and bold text
	Plain bool
	Out   io.Writer
}

// App runs login sessions until the user stops
type App struct {
	storage      *storage.Storage
	appointments *handler.AppointmentHandler
	credentials  *credential.Store
	prompt       Prompter
	out          io.Writer
	config       *Config
	theme        theme
	log          zerolog.Logger
}

type session struct {
	role  models.Role
	owner string
	log   zerolog.Logger
}

type menuItem struct {
	label string
	run   func(ctx context.Context) error
}

type theme struct {
	plain   bool
	heading lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

func newTheme(plain bool) theme {
	return theme{
		plain:   plain,
		heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		failure: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (t theme) render(style lipgloss.Style, s string) string {
	if t.plain {
		return s
	}
	return style.Render(s)
}

// NewApp creates a new App
func NewApp(store *storage.Storage, appointments *handler.AppointmentHandler, credentials *credential.Store, prompt Prompter, cfg *Config, log zerolog.Logger) *App {
	return &App{
		storage:      store,
		appointments: appointments,
		credentials:  credentials,
		prompt:       prompt,
		out:          cfg.Out,
		config:       cfg,
		theme:        newTheme(cfg.Plain),
		log:          log.With().Str("component", "cli").Logger(),
	}
}

// Run logs users in and shows their menus until they decline to log in
// again, the input ends or ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		sess, err := a.login(ctx)
		if errors.Is(err, ErrAborted) {
			return nil
		}
		if err != nil {
			a.reportLogin(err)
			again, err := a.prompt.Confirm("Login failed. Try again?")
			if err != nil || !again {
				a.println("Exiting program.")
				return nil
			}
			continue
		}

		sess.log.Info().Msg("Logged in")
		err = a.showMenu(ctx, sess)
		a.logout(ctx, sess)
		if errors.Is(err, ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}

		again, err := a.prompt.Confirm("Do you want to log in again?")
		if err != nil || !again {
			a.printf("Thank you for using %s. Goodbye!\n", a.config.ClinicName)
			return nil
		}
	}
}

func (a *App) newSession(role models.Role, owner string) *session {
	l := a.log.With().Str("session", uuid.NewString()).Str("role", string(role))
	if owner != "" {
		l = l.Str("owner", owner)
	}
	return &session{role: role, owner: owner, log: l.Logger()}
}

func (a *App) logout(ctx context.Context, sess *session) {
	if err := a.storage.Save(ctx); err != nil {
		sess.log.Error().Err(err).Msg("Failed to save on logout")
		a.fail(fmt.Sprintf("Your changes could not be saved: %v", err))
	}
	sess.log.Info().Msg("Logged out")
}

func (a *App) showMenu(ctx context.Context, sess *session) error {
	a.storage.RefreshStatuses()
	if sess.role == models.RoleCustomer {
		return a.customerMenu(ctx, sess)
	}
	return a.mainMenu(ctx, sess)
}

// loop shows items until the user picks the back entry
func (a *App) loop(ctx context.Context, title, back string, items func() []menuItem) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		current := items()
		labels := make([]string, 0, len(current)+1)
		for _, item := range current {
			labels = append(labels, item.label)
		}
		labels = append(labels, back)

		choice, err := a.prompt.Choose(title, labels)
		if err != nil {
			return err
		}
		if choice == len(current) {
			return nil
		}

		if err := current[choice].run(ctx); err != nil {
			if errors.Is(err, ErrAborted) {
				return err
			}
			a.report(err)
		}
	}
}

func (a *App) heading(title string) {
	a.println("\n" + a.theme.render(a.theme.heading, title))
}

func (a *App) succeed(msg string) {
	a.println(a.theme.render(a.theme.success, msg))
}

func (a *App) fail(msg string) {
	a.println(a.theme.render(a.theme.failure, msg))
}

func (a *App) println(s string) {
	fmt.Fprintln(a.out, s)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// done prints msg when err is nil or only a save failure. A save failure is
// reported after msg because the change itself was applied.
func (a *App) done(err error, msg string) error {
	if err != nil && !errors.Is(err, storage.ErrPersistence) {
		return err
	}
	a.succeed(msg)
	if err != nil {
		a.fail("Warning: the change is kept for this session but could not be saved to disk.")
	}
	return nil
}

// report tells the user why an action was refused
func (a *App) report(err error) {
	switch {
	case errors.Is(err, scheduling.ErrNotFuture):
		a.fail("Error: Cannot schedule appointments in the past.")
	case errors.Is(err, scheduling.ErrSlotTaken):
		a.fail("Error: There is already an appointment at this time.")
	case errors.Is(err, scheduling.ErrDuplicate):
		a.fail("Error: This pet already has an appointment at this time.")
	case errors.Is(err, scheduling.ErrPastReschedule):
		a.fail("Cannot set a past appointment to Scheduled status.")
	case errors.Is(err, scheduling.ErrInvalidTransition):
		a.fail(capitalize(err.Error()) + ".")
	case errors.Is(err, storage.ErrOwnerNotFound):
		a.fail("Owner not found.")
	case errors.Is(err, storage.ErrPetNotFound):
		a.fail("Pet not found.")
	case errors.Is(err, storage.ErrAppointmentNotFound):
		a.fail("Appointment not found.")
	case errors.Is(err, storage.ErrOwnerExists):
		a.fail("An owner with this name already exists. Please use a different name.")
	case errors.Is(err, storage.ErrPetExists):
		a.fail("This owner already has a pet with this name.")
	default:
		a.log.Error().Err(err).Msg("Action failed")
		a.fail(fmt.Sprintf("An unexpected error occurred: %v", err))
	}
}

func (a *App) reportLogin(err error) {
	switch {
	case errors.Is(err, errInvalidRole):
		a.fail("Please enter a valid role (admin, vet, staff, or customer).")
	case errors.Is(err, errAlreadyRegistered):
		a.fail("Customer already exists. Please login instead.")
	case errors.Is(err, errLoginFailed), errors.Is(err, credential.ErrWrongPassword), errors.Is(err, storage.ErrInvalidCredentials):
		a.fail("Please check your credentials and try again.")
	default:
		a.log.Error().Err(err).Msg("Login failed")
		a.fail(fmt.Sprintf("Login failed: %v", err))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
