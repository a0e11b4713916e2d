package cli

import (
	"context"
	"fmt"

	"vet-clinic/internal/models"
	"vet-clinic/internal/storage"
	"vet-clinic/internal/validate"
)

func (a *App) mainMenu(ctx context.Context, sess *session) error {
	return a.loop(ctx, "Main Menu", "Logout", func() []menuItem {
		items := []menuItem{
			{"View Profile", func(ctx context.Context) error {
				a.printf("\nCurrent Role: %s\n", sess.role.Title())
				return nil
			}},
			{"Pets Menu", func(ctx context.Context) error { return a.petsMenu(ctx, sess) }},
			{"Appointments Menu", func(ctx context.Context) error { return a.appointmentsMenu(ctx, sess) }},
		}
		if sess.role == models.RoleAdmin || sess.role == models.RoleStaff {
			items = append(items, menuItem{"Owners Menu", func(ctx context.Context) error { return a.ownersMenu(ctx, sess) }})
		}
		return items
	})
}

func (a *App) petsMenu(ctx context.Context, sess *session) error {
	return a.loop(ctx, "Pets Menu", "Back to Previous Menu", func() []menuItem {
		items := []menuItem{
			{"View All Pets", a.viewAllPets},
			{"View Pet Medical History", func(ctx context.Context) error { return a.medicalHistory(ctx, sess) }},
		}
		if sess.role == models.RoleAdmin || sess.role == models.RoleStaff {
			items = append(items, menuItem{"Update Pet", a.updatePet})
		}
		if sess.role == models.RoleAdmin {
			items = append(items, menuItem{"Delete Pet", a.deletePet})
		}
		return items
	})
}

func (a *App) appointmentsMenu(ctx context.Context, sess *session) error {
	return a.loop(ctx, "Appointments Menu", "Back to Previous Menu", func() []menuItem {
		items := []menuItem{
			{"View All Appointments", a.viewAllAppointments},
		}
		if sess.role == models.RoleAdmin || sess.role == models.RoleStaff {
			items = append(items,
				menuItem{"Schedule Appointment", a.scheduleAppointment},
				menuItem{"Update Appointment", a.updateAppointment},
			)
		}
		if sess.role == models.RoleAdmin || sess.role == models.RoleVet {
			items = append(items, menuItem{"Cancel Appointment", a.cancelAppointment})
		}
		return items
	})
}

func (a *App) ownersMenu(ctx context.Context, sess *session) error {
	return a.loop(ctx, "Owners Menu", "Back to Previous Menu", func() []menuItem {
		items := []menuItem{
			{"View All Owners", a.viewAllOwners},
		}
		if sess.role == models.RoleAdmin || sess.role == models.RoleStaff {
			items = append(items,
				menuItem{"Add New Owner", a.addOwner},
				menuItem{"Update Owner", a.updateOwner},
			)
		}
		if sess.role == models.RoleAdmin {
			items = append(items, menuItem{"Delete Owner", a.deleteOwner})
		}
		return items
	})
}

// --- Pets ---

func (a *App) viewAllPets(ctx context.Context) error {
	pets := a.storage.AllPets()
	if len(pets) == 0 {
		a.println("No pets found.")
		return nil
	}

	owner := ""
	for _, p := range pets {
		if p.OwnerName != owner {
			owner = p.OwnerName
			a.heading("Owner: " + owner)
		}
		a.println(petLine(p.Pet))
	}
	return nil
}

func (a *App) askPet() (string, string, error) {
	owner, err := a.prompt.Text("Enter owner's name", validate.CheckName)
	if err != nil {
		return "", "", err
	}
	pet, err := a.prompt.Text("Enter pet's name", validate.CheckName)
	if err != nil {
		return "", "", err
	}
	return owner, pet, nil
}

func (a *App) medicalHistory(ctx context.Context, sess *session) error {
	ownerName, petName, err := a.askPet()
	if err != nil {
		return err
	}
	pet, err := a.storage.Pet(ownerName, petName)
	if err != nil {
		return err
	}

	a.heading("Medical History for " + pet.Name)
	a.printf("Owner: %s\nBreed: %s\nAge: %d\n", ownerName, pet.Breed, pet.Age)
	if pet.Vaccinated {
		a.println("Vaccination Status: Vaccinated")
	} else {
		a.println("Vaccination Status: Not Vaccinated")
	}
	a.println("\nMedical History:")
	if pet.MedicalHistory == "" {
		a.println(a.theme.render(a.theme.muted, "No medical history recorded."))
	} else {
		a.println(pet.MedicalHistory)
	}

	if sess.role != models.RoleAdmin && sess.role != models.RoleVet {
		return nil
	}

	a.println("\nAppointment History:")
	a.petAppointments(ownerName, petName)

	choice, err := a.prompt.Choose("Medical History Management Options", []string{
		"Add new entry to medical history",
		"Replace entire medical history",
		"Return to previous menu",
	})
	if err != nil {
		return err
	}

	switch choice {
	case 0:
		entry, err := a.prompt.Text("Enter new medical history entry", nil)
		if err != nil {
			return err
		}
		err = a.storage.AppendMedicalHistory(ctx, ownerName, petName, entry)
		return a.done(err, "Medical history updated successfully!")
	case 1:
		history, err := a.prompt.Text("Enter new comprehensive medical history", nil)
		if err != nil {
			return err
		}
		err = a.storage.ReplaceMedicalHistory(ctx, ownerName, petName, history)
		return a.done(err, "Medical history replaced successfully!")
	}
	return nil
}

func (a *App) updatePet(ctx context.Context) error {
	ownerName, petName, err := a.askPet()
	if err != nil {
		return err
	}
	pet, err := a.storage.Pet(ownerName, petName)
	if err != nil {
		return err
	}

	a.println("Current pet details:")
	a.printf("Name: %s\nBreed: %s\nAge: %d\nMedical History: %s\nVaccinated: %s\n",
		pet.Name, pet.Breed, pet.Age, pet.MedicalHistory, pet.VaccinatedLabel())

	history, err := a.prompt.Text("Enter new medical history", nil)
	if err != nil {
		return err
	}
	vaccinated, err := a.prompt.Confirm("Is the pet vaccinated?")
	if err != nil {
		return err
	}

	err = a.storage.UpdatePet(ctx, ownerName, petName, history, vaccinated)
	return a.done(err, "Pet updated successfully!")
}

func (a *App) deletePet(ctx context.Context) error {
	ownerName, petName, err := a.askPet()
	if err != nil {
		return err
	}
	if _, err := a.storage.Pet(ownerName, petName); err != nil {
		return err
	}

	ok, err := a.prompt.Confirm(fmt.Sprintf("Delete %s and all of its appointments?", petName))
	if err != nil || !ok {
		return err
	}

	err = a.storage.DeletePet(ctx, ownerName, petName)
	return a.done(err, "Pet deleted successfully!")
}

// --- Appointments ---

func (a *App) viewAllAppointments(ctx context.Context) error {
	appts := a.storage.Appointments()
	if len(appts) == 0 {
		a.println("No appointments found.")
		return nil
	}
	for _, appt := range appts {
		a.println(a.appointmentLine(appt))
	}
	return nil
}

// askSlot asks which pet and slot an appointment is for
func (a *App) askSlot() (owner, pet, date, clock string, err error) {
	owner, pet, err = a.askPet()
	if err != nil {
		return
	}
	date, err = a.prompt.Text("Enter date (YYYY-MM-DD)", validate.CheckDate)
	if err != nil {
		return
	}
	clock, err = a.prompt.Text("Enter time (HH:MM)", validate.CheckTime)
	return
}

func (a *App) scheduleAppointment(ctx context.Context) error {
	owner, pet, date, clock, err := a.askSlot()
	if err != nil {
		return err
	}
	_, err = a.appointments.Schedule(ctx, owner, pet, date, clock)
	return a.done(err, "Appointment scheduled successfully!")
}

func (a *App) updateAppointment(ctx context.Context) error {
	owner, pet, date, clock, err := a.askSlot()
	if err != nil {
		return err
	}

	labels := make([]string, len(models.Statuses))
	for i, s := range models.Statuses {
		labels[i] = string(s)
	}
	choice, err := a.prompt.Choose("New status", labels)
	if err != nil {
		return err
	}

	_, err = a.appointments.UpdateStatus(ctx, owner, pet, date, clock, models.Statuses[choice])
	return a.done(err, "Appointment updated successfully!")
}

func (a *App) cancelAppointment(ctx context.Context) error {
	owner, pet, date, clock, err := a.askSlot()
	if err != nil {
		return err
	}
	_, err = a.appointments.Cancel(ctx, owner, pet, date, clock)
	return a.done(err, "Appointment cancelled successfully!")
}

// --- Owners ---

func (a *App) viewAllOwners(ctx context.Context) error {
	owners := a.storage.Owners()
	if len(owners) == 0 {
		a.println("No owners found.")
		return nil
	}
	for _, o := range owners {
		a.println("")
		a.println(ownerDetails(o))
	}
	return nil
}

func (a *App) addOwner(ctx context.Context) error {
	name, err := a.prompt.Text("Enter owner name", validate.CheckName)
	if err != nil {
		return err
	}
	if _, err := a.storage.Owner(name); err == nil {
		return storage.ErrOwnerExists
	}

	owner, err := a.askOwnerDetails(name, "Enter password (min 6 characters)")
	if err != nil {
		return err
	}
	err = a.storage.AddOwner(ctx, owner)
	return a.done(err, "Owner added successfully!")
}

func (a *App) updateOwner(ctx context.Context) error {
	name, err := a.prompt.Text("Enter owner name to update", validate.CheckName)
	if err != nil {
		return err
	}
	owner, err := a.storage.Owner(name)
	if err != nil {
		return err
	}

	a.println("Current details:")
	a.println(ownerDetails(owner))

	address, err := a.prompt.Text("Enter new address", validate.CheckAddress)
	if err != nil {
		return err
	}
	phone, err := a.prompt.Text("Enter new phone", validate.CheckPhone)
	if err != nil {
		return err
	}
	email, err := a.prompt.Text("Enter new email", validate.CheckEmail)
	if err != nil {
		return err
	}

	err = a.storage.UpdateOwnerContact(ctx, name, address, phone, email)
	return a.done(err, "Owner updated successfully!")
}

func (a *App) deleteOwner(ctx context.Context) error {
	name, err := a.prompt.Text("Enter owner name to delete", validate.CheckName)
	if err != nil {
		return err
	}
	if _, err := a.storage.Owner(name); err != nil {
		return err
	}

	ok, err := a.prompt.Confirm(fmt.Sprintf("Delete %s with all pets and appointments?", name))
	if err != nil || !ok {
		return err
	}

	err = a.storage.DeleteOwner(ctx, name)
	return a.done(err, "Owner deleted successfully!")
}

// --- Views ---

func petLine(p models.Pet) string {
	return fmt.Sprintf("- %s (%s), Age: %d, Vaccinated: %s", p.Name, p.Breed, p.Age, p.VaccinatedLabel())
}

func ownerDetails(o models.Owner) string {
	return fmt.Sprintf("Name: %s\nAge: %d\nAddress: %s\nPhone: %s\nEmail: %s", o.Name, o.Age, o.Address, o.Phone, o.Email)
}

// appointmentLine shows an appointment with its owner and pet resolved from
// the current records
func (a *App) appointmentLine(appt models.Appointment) string {
	owner, pet, ok := a.storage.Resolve(appt)
	line := fmt.Sprintf("Date: %s | Time: %s | Pet: %s | Owner: %s | Status: %s",
		appt.Date, appt.Time, pet.Name, owner.Name, appt.Status)
	if !ok {
		line += " " + a.theme.render(a.theme.muted, "(no longer on file)")
	}
	return line
}

func (a *App) petAppointments(ownerName, petName string) {
	appts := a.storage.AppointmentsForPet(ownerName, petName)
	if len(appts) == 0 {
		a.println("No appointment history found for this pet.")
		return
	}
	for _, appt := range appts {
		a.printf("Date: %s | Time: %s | Status: %s\n", appt.Date, appt.Time, appt.Status)
	}
}
