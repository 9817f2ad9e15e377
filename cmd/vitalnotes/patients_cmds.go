package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vitalnotes/internal/application"
	"vitalnotes/internal/domain"
)

func (c *cli) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Summarize the patient records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.guard.Guard(nil, func(identity domain.Identity) error {
				if err := c.app.records.List(cmd.Context()); err != nil {
					return err
				}
				stats := application.Summarize(c.app.records.Records())
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Welcome, %s (%s)\n", displayName(identity), identity.Role)
				fmt.Fprintf(out, "Total patients:   %d\n", stats.Total)
				fmt.Fprintf(out, "Average age:      %d\n", stats.AverageAge)
				fmt.Fprintf(out, "Serious cases:    %d\n", stats.SeriousCases)
				return nil
			})
		},
	}
}

func (c *cli) patientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "List and manage patient records",
	}
	cmd.AddCommand(c.patientsListCmd(), c.patientsAddCmd(), c.patientsEditCmd(), c.patientsDeleteCmd())
	return cmd
}

func (c *cli) patientsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List patient records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.guard.Guard(nil, func(domain.Identity) error {
				if err := c.app.records.List(cmd.Context()); err != nil {
					return err
				}
				records := c.app.records.Records()
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No patient records.")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "#\tNAME\tAGE\tCONDITION\tPHONE\tNOTES")
				for i, p := range records {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, p.Name, p.Age, p.Condition, p.Phone, p.Notes)
				}
				return w.Flush()
			})
		},
	}
}

// patientFlags binds the editable patient fields to cmd.
type patientFlags struct {
	name, age, condition, notes, phone string
}

func (f *patientFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "patient name")
	cmd.Flags().StringVar(&f.age, "age", "", "patient age")
	cmd.Flags().StringVar(&f.condition, "condition", "", "medical condition")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&f.phone, "phone", "", "contact phone")
}

// patch returns only the fields whose flags were set.
func (f *patientFlags) patch(cmd *cobra.Command) domain.PatientPatch {
	var p domain.PatientPatch
	set := func(name string, value string, dst **string) {
		if cmd.Flags().Changed(name) {
			v := value
			*dst = &v
		}
	}
	set("name", f.name, &p.Name)
	set("age", f.age, &p.Age)
	set("condition", f.condition, &p.Condition)
	set("notes", f.notes, &p.Notes)
	set("phone", f.phone, &p.Phone)
	return p
}

func (c *cli) patientsAddCmd() *cobra.Command {
	var flags patientFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a patient record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.guard.Guard([]domain.Role{domain.RoleAdmin, domain.RoleDoctor}, func(domain.Identity) error {
				patient := flags.patch(cmd).Apply(domain.Patient{})
				if err := application.ValidatePatientForm(patient); err != nil {
					return err
				}
				created, err := c.app.records.Create(cmd.Context(), patient)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s%s\n", created.Name, idSuffix(created))
				return nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func (c *cli) patientsEditCmd() *cobra.Command {
	var flags patientFlags
	cmd := &cobra.Command{
		Use:   "edit <n>",
		Short: "Edit the n-th patient record of the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := position(args[0])
			if err != nil {
				return err
			}
			return c.app.guard.GuardAction(domain.ActionEditPatient, func(domain.Identity) error {
				ctx := cmd.Context()
				if err := c.app.records.List(ctx); err != nil {
					return err
				}
				patch := flags.patch(cmd)
				if records := c.app.records.Records(); index < len(records) {
					if err := application.ValidatePatientForm(patch.Apply(records[index])); err != nil {
						return err
					}
				}
				updated, ok, err := c.app.records.Update(ctx, index, patch)
				if err != nil {
					return err
				}
				if !ok {
					return noSavedRecord(args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s%s\n", updated.Name, idSuffix(updated))
				return nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func (c *cli) patientsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <n>",
		Short: "Delete the n-th patient record of the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := position(args[0])
			if err != nil {
				return err
			}
			return c.app.guard.GuardAction(domain.ActionDeletePatient, func(domain.Identity) error {
				ctx := cmd.Context()
				if err := c.app.records.List(ctx); err != nil {
					return err
				}
				ok, err := c.app.records.Delete(ctx, index)
				if err != nil {
					return err
				}
				if !ok {
					return noSavedRecord(args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted patient %s\n", args[0])
				return nil
			})
		},
	}
}

// position converts a 1-based list position into an index.
func position(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: position must be a positive integer, got %q", domain.ErrInvalidInput, raw)
	}
	return n - 1, nil
}

func noSavedRecord(pos string) error {
	return fmt.Errorf("%w: no saved patient record at position %s", domain.ErrNotFound, pos)
}

func idSuffix(p domain.Patient) string {
	if p.ID == nil {
		return ""
	}
	return " (id " + strconv.FormatInt(*p.ID, 10) + ")"
}
