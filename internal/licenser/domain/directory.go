package domain

import "time"

// Application is an entry in the application directory. Licenses reference
// applications by ID; the directory itself is read-only to the licensing
// core.
type Application struct {
	ID        string
	Name      string
	Publisher string
	Version   string
	CreatedAt time.Time
}

// Customer is an entry in the customer directory.
type Customer struct {
	No        string
	Name      string
	Contact   string
	CreatedAt time.Time
}
