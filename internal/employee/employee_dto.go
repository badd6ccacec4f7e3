package employee

type CreateEmployeeRequest struct {
	UserID           string `json:"user_id"`
	FirstName        string `json:"first_name" binding:"required"`
	LastName         string `json:"last_name"`
	Role             string `json:"role" binding:"required,oneof=admin rh employe"`
	Grade            string `json:"grade" binding:"omitempty,oneof=A1 A2 B1 B2"`
	PersonnelType    string `json:"personnel_type"`
	ServiceStartDate string `json:"service_start_date"`
}

type UpdateEmployeeRequest struct {
	FirstName        string `json:"first_name" binding:"required"`
	LastName         string `json:"last_name"`
	Role             string `json:"role" binding:"required,oneof=admin rh employe"`
	Grade            string `json:"grade" binding:"omitempty,oneof=A1 A2 B1 B2"`
	PersonnelType    string `json:"personnel_type"`
	ServiceStartDate string `json:"service_start_date"`
}

type EmployeeResponse struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id,omitempty"`
	Matricule        string `json:"matricule"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	FullName         string `json:"full_name"`
	Role             string `json:"role"`
	Grade            string `json:"grade,omitempty"`
	PersonnelType    string `json:"personnel_type,omitempty"`
	ServiceStartDate string `json:"service_start_date,omitempty"`
}

func mapToResponse(empl Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:            empl.ID.String(),
		Matricule:     empl.Matricule,
		FirstName:     empl.FirstName,
		LastName:      empl.LastName,
		FullName:      empl.FullName(),
		Role:          empl.Role,
		Grade:         empl.Grade,
		PersonnelType: empl.PersonnelType,
	}
	if empl.UserID != nil {
		resp.UserID = *empl.UserID
	}
	if empl.ServiceStartDate != nil {
		resp.ServiceStartDate = empl.ServiceStartDate.Format("2006-01-02")
	}
	return resp
}

func mapToListResponse(emps []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, len(emps))
	for i, e := range emps {
		res[i] = mapToResponse(e)
	}
	return res
}
