package models

// Name is the first and last name of a store user.
type Name struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// String joins first and last name.
func (n Name) String() string {
	switch {
	case n.Firstname == "":
		return n.Lastname
	case n.Lastname == "":
		return n.Firstname
	default:
		return n.Firstname + " " + n.Lastname
	}
}

// Address is the postal address of a user with its geolocation.
type Address struct {
	Geolocation Geolocation `json:"geolocation"`
	City        string      `json:"city"`
	Street      string      `json:"street"`
	Number      int         `json:"number"`
	Zipcode     string      `json:"zipcode"`
}

// User is a store customer as returned by the /users endpoint.
type User struct {
	ID       int     `json:"id"`
	Email    string  `json:"email"`
	Username string  `json:"username"`
	Name     Name    `json:"name"`
	Address  Address `json:"address"`
	Phone    string  `json:"phone"`
}
