package upstream

import "github.com/shopspring/decimal"

// User is the profile record returned by the distributor on login.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"nombre"`
	Code  string `json:"codigo"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Subcategory struct {
	Code string `json:"codigo"`
	Name string `json:"nombre"`
}

type Category struct {
	Code          string        `json:"codigo"`
	Name          string        `json:"nombre"`
	Subcategories []Subcategory `json:"subrubros"`
}

// Brand carries the upstream visibility flag; entries with Visible=false
// are not selectable in the storefront.
type Brand struct {
	Code    string `json:"codigo"`
	Name    string `json:"nombre"`
	Visible bool   `json:"visible"`
}

type Product struct {
	Code      string          `json:"codigo"`
	Name      string          `json:"nombre"`
	Brand     string          `json:"marca"`
	UnitPrice decimal.Decimal `json:"precio"`
	ImageRef  string          `json:"imagen"`
}

// RegisterRequest is the flat self-registration record posted to
// /web-usuarios/. No auth header is attached.
type RegisterRequest struct {
	FirstName  string `json:"nombre"`
	LastName   string `json:"apellido"`
	Email      string `json:"email"`
	Password   string `json:"clave"`
	Address    string `json:"direccion"`
	City       string `json:"localidad"`
	Province   string `json:"provincia"`
	PostalCode string `json:"codigo_postal"`
	Phone      string `json:"telefono"`
}

type OrderItem struct {
	Code      string          `json:"codigo"`
	Name      string          `json:"nombre"`
	UnitPrice decimal.Decimal `json:"precio"`
	Quantity  int             `json:"cantidad"`
}

type OrderRequest struct {
	Items    []OrderItem     `json:"items"`
	UserCode string          `json:"cliente"`
	Total    decimal.Decimal `json:"total"`
}

type OrderResponse struct {
	ID int64 `json:"id"`
}

// detailBody is the error shape the upstream returns on non-2xx.
type detailBody struct {
	Detail string `json:"detail"`
}
