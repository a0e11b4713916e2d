package cli

import (
	"context"
	"errors"

	"vet-clinic/internal/models"
	"vet-clinic/internal/validate"
)

var errNoPets = errors.New("no pets registered")

func (a *App) customerMenu(ctx context.Context, sess *session) error {
	if _, err := a.storage.Owner(sess.owner); err != nil {
		a.fail("Customer not found!")
		return nil
	}

	return a.loop(ctx, "Customer Menu ("+sess.owner+")", "Logout", func() []menuItem {
		return []menuItem{
			{"View My Profile", func(ctx context.Context) error { return a.viewProfile(sess) }},
			{"View My Pets", func(ctx context.Context) error { return a.viewMyPets(sess) }},
			{"View My Appointments", func(ctx context.Context) error { return a.viewMyAppointments(sess) }},
			{"Add New Pet", func(ctx context.Context) error { return a.addMyPet(ctx, sess) }},
			{"Schedule Appointment", func(ctx context.Context) error { return a.scheduleMyPet(ctx, sess) }},
			{"View Pet Appointment History", func(ctx context.Context) error { return a.viewMyPetHistory(sess) }},
		}
	})
}

func (a *App) viewProfile(sess *session) error {
	owner, err := a.storage.Owner(sess.owner)
	if err != nil {
		return err
	}
	a.heading("Your Profile")
	a.println(ownerDetails(owner))
	return nil
}

func (a *App) viewMyPets(sess *session) error {
	pets, err := a.storage.Pets(sess.owner)
	if err != nil {
		return err
	}
	if len(pets) == 0 {
		a.println("You have no pets registered.")
		return nil
	}
	a.heading("Your Pets")
	for _, p := range pets {
		a.println(petLine(p))
	}
	return nil
}

func (a *App) viewMyAppointments(sess *session) error {
	appts := a.storage.AppointmentsForOwner(sess.owner)
	a.heading("Your Appointments")
	if len(appts) == 0 {
		a.println("No appointments found.")
		return nil
	}
	for _, appt := range appts {
		a.printf("Date: %s | Time: %s | Pet: %s | Status: %s\n", appt.Date, appt.Time, appt.PetName, appt.Status)
	}
	return nil
}

func (a *App) addMyPet(ctx context.Context, sess *session) error {
	name, err := a.prompt.Text("Enter pet name", validate.CheckName)
	if err != nil {
		return err
	}
	breed, err := a.prompt.Text("Enter pet breed", validate.CheckName)
	if err != nil {
		return err
	}
	age, err := a.prompt.Number("Enter pet age", validate.CheckPetAge)
	if err != nil {
		return err
	}
	history, err := a.prompt.Text("Enter medical history", nil)
	if err != nil {
		return err
	}
	vaccinated, err := a.prompt.Confirm("Is the pet vaccinated?")
	if err != nil {
		return err
	}

	pet := models.Pet{
		Name:           name,
		Breed:          breed,
		Age:            age,
		MedicalHistory: history,
		Vaccinated:     vaccinated,
	}
	err = a.storage.AddPet(ctx, sess.owner, pet)
	return a.done(err, "Pet added successfully!")
}

// choosePet lets the customer pick one of their pets
func (a *App) choosePet(sess *session, title string) (models.Pet, error) {
	pets, err := a.storage.Pets(sess.owner)
	if err != nil {
		return models.Pet{}, err
	}
	if len(pets) == 0 {
		return models.Pet{}, errNoPets
	}

	names := make([]string, len(pets))
	for i, p := range pets {
		names[i] = p.Name
	}
	choice, err := a.prompt.Choose(title, names)
	if err != nil {
		return models.Pet{}, err
	}
	return pets[choice], nil
}

func (a *App) scheduleMyPet(ctx context.Context, sess *session) error {
	pet, err := a.choosePet(sess, "Select a pet")
	if errors.Is(err, errNoPets) {
		a.println("You need to add a pet first!")
		return nil
	}
	if err != nil {
		return err
	}

	date, err := a.prompt.Text("Enter date (YYYY-MM-DD)", validate.CheckDate)
	if err != nil {
		return err
	}
	clock, err := a.prompt.Text("Enter time (HH:MM)", validate.CheckTime)
	if err != nil {
		return err
	}

	_, err = a.appointments.Schedule(ctx, sess.owner, pet.Name, date, clock)
	if err == nil {
		sess.log.Info().Str("pet", pet.Name).Str("date", date).Str("time", clock).Msg("Customer booked appointment")
	}
	return a.done(err, "Appointment scheduled successfully!")
}

func (a *App) viewMyPetHistory(sess *session) error {
	pet, err := a.choosePet(sess, "Select a pet to view appointment history")
	if errors.Is(err, errNoPets) {
		a.println("You have no pets registered.")
		return nil
	}
	if err != nil {
		return err
	}

	a.heading("Appointment History for " + pet.Name)
	a.petAppointments(sess.owner, pet.Name)
	return nil
}
