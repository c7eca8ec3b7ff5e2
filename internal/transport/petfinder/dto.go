package petfinder

type animalsResponse struct {
	Animals    []animalDTO   `json:"animals"`
	Pagination paginationDTO `json:"pagination"`
}

type paginationDTO struct {
	CountPerPage int `json:"count_per_page"`
	TotalCount   int `json:"total_count"`
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
}

type animalDTO struct {
	ID             int64     `json:"id"`
	OrganizationID string    `json:"organization_id"`
	URL            string    `json:"url"`
	Type           string    `json:"type"`
	Species        string    `json:"species"`
	Breeds         breedsDTO `json:"breeds"`
	Colors         colorsDTO `json:"colors"`
	Age            string    `json:"age"`
	Gender         string    `json:"gender"`
	Size           string    `json:"size"`
	Coat           *string   `json:"coat"`
	Name           string    `json:"name"`
	Description    *string   `json:"description"`
	Photos         []photo   `json:"photos"`
	Status         string    `json:"status"`
	Distance       *float64  `json:"distance"`
}

type breedsDTO struct {
	Primary   *string `json:"primary"`
	Secondary *string `json:"secondary"`
	Mixed     bool    `json:"mixed"`
}

type colorsDTO struct {
	Primary   *string `json:"primary"`
	Secondary *string `json:"secondary"`
}

type photo struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
	Full   string `json:"full"`
}

type organizationResponse struct {
	Organization organizationDTO `json:"organization"`
}

type organizationDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	URL   string `json:"url"`
}
