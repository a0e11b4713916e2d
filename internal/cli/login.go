package cli

import (
	"context"
	"errors"
	"fmt"

	"vet-clinic/internal/models"
	"vet-clinic/internal/storage"
	"vet-clinic/internal/validate"
)

// login asks for a role and the matching credentials
func (a *App) login(ctx context.Context) (*session, error) {
	a.heading(a.config.ClinicName + " Login")
	a.println("Available roles: admin, vet, staff, customer")

	input, err := a.prompt.Text("Enter role", nil)
	if err != nil {
		return nil, err
	}
	role, err := models.ParseRole(input)
	if err != nil {
		a.log.Debug().Str("role", input).Msg("Unknown role")
		return nil, fmt.Errorf("%w: %w", errInvalidRole, err)
	}

	if role == models.RoleCustomer {
		return a.customerPortal(ctx)
	}

	password, err := a.prompt.Secret("Enter password", nil)
	if err != nil {
		return nil, err
	}
	if err := a.credentials.Verify(role, password); err != nil {
		a.log.Warn().Err(err).Str("role", string(role)).Msg("Staff login rejected")
		return nil, err
	}

	a.succeed(fmt.Sprintf("Logged in as %s.", role.Title()))
	return a.newSession(role, ""), nil
}

func (a *App) customerPortal(ctx context.Context) (*session, error) {
	choice, err := a.prompt.Choose("Customer Portal", []string{
		"Register New Account",
		"Login to Existing Account",
	})
	if err != nil {
		return nil, err
	}

	if choice == 0 {
		return a.register(ctx)
	}

	name, err := a.prompt.Text("Enter your name", validate.CheckName)
	if err != nil {
		return nil, err
	}
	password, err := a.prompt.Secret("Enter your password", nil)
	if err != nil {
		return nil, err
	}

	owner, err := a.storage.Authenticate(name, password)
	if err != nil {
		a.log.Warn().Str("owner", name).Msg("Customer login rejected")
		return nil, err
	}

	a.succeed(fmt.Sprintf("Login successful! Welcome back, %s!", owner.Name))
	return a.newSession(models.RoleCustomer, owner.Name), nil
}

func (a *App) register(ctx context.Context) (*session, error) {
	a.heading("New Customer Registration")

	name, err := a.prompt.Text("Enter your full name", validate.CheckName)
	if err != nil {
		return nil, err
	}
	if _, err := a.storage.Owner(name); err == nil {
		return nil, errAlreadyRegistered
	}

	owner, err := a.askOwnerDetails(name, "Create a password (min 6 characters)")
	if err != nil {
		return nil, err
	}

	err = a.storage.AddOwner(ctx, owner)
	if errors.Is(err, storage.ErrOwnerExists) {
		return nil, errAlreadyRegistered
	}
	if err := a.done(err, fmt.Sprintf("Registration successful! Welcome %s!", name)); err != nil {
		return nil, err
	}
	return a.newSession(models.RoleCustomer, name), nil
}

// askOwnerDetails asks for everything but the name of a new owner
func (a *App) askOwnerDetails(name, passwordPrompt string) (models.Owner, error) {
	age, err := a.prompt.Number("Enter age", validate.CheckOwnerAge)
	if err != nil {
		return models.Owner{}, err
	}
	address, err := a.prompt.Text("Enter address", validate.CheckAddress)
	if err != nil {
		return models.Owner{}, err
	}
	phone, err := a.prompt.Text("Enter phone (11 digits)", validate.CheckPhone)
	if err != nil {
		return models.Owner{}, err
	}
	email, err := a.prompt.Text("Enter email", validate.CheckEmail)
	if err != nil {
		return models.Owner{}, err
	}
	password, err := a.prompt.Secret(passwordPrompt, validate.CheckPassword)
	if err != nil {
		return models.Owner{}, err
	}
	return models.NewOwner(name, age, address, phone, email, password), nil
}
