package domain

type Action string

const (
	ActionAddPatient      Action = "add_patient"
	ActionEditPatient     Action = "edit_patient"
	ActionDeletePatient   Action = "delete_patient"
	ActionViewAllRecords  Action = "view_all_records"
	ActionViewOwnRecord   Action = "view_own_record"
	ActionManageUsers     Action = "manage_users"
	ActionAddPrescription Action = "add_prescription"
	ActionUpdateVitals    Action = "update_vitals"
)

// PermissionTable maps an action to the roles allowed to perform it.
type PermissionTable map[Action][]Role

// DefaultPermissions returns a fresh copy of the built-in table.
func DefaultPermissions() PermissionTable {
	return PermissionTable{
		ActionAddPatient:      {RoleAdmin, RoleDoctor},
		ActionEditPatient:     {RoleAdmin, RoleDoctor, RoleNurse},
		ActionDeletePatient:   {RoleAdmin},
		ActionViewAllRecords:  {RoleAdmin, RoleDoctor, RoleNurse},
		ActionViewOwnRecord:   {RolePatient},
		ActionManageUsers:     {RoleAdmin},
		ActionAddPrescription: {RoleAdmin, RoleDoctor},
		ActionUpdateVitals:    {RoleAdmin, RoleDoctor, RoleNurse},
	}
}
