package domain

import "time"

const (
	EnquiryGeneral = "GENERAL"
	EnquiryProduct = "PRODUCT"

	EnquiryNew       = "NEW"
	EnquiryResponded = "RESPONDED"
	EnquiryClosed    = "CLOSED"

	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

func ValidEnquiryType(s string) bool { return s == EnquiryGeneral || s == EnquiryProduct }

func ValidEnquiryStatus(s string) bool {
	switch s {
	case EnquiryNew, EnquiryResponded, EnquiryClosed:
		return true
	}
	return false
}

func ValidPriority(s string) bool {
	switch s {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

type Enquiry struct {
	ID             int64     `db:"id" json:"id"`
	EnquiryType    string    `db:"enquiry_type" json:"enquiry_type"`
	ProductName    *string   `db:"product_name" json:"product_name"`
	ProductSlug    *string   `db:"product_slug" json:"product_slug"`
	ProductURL     *string   `db:"product_url" json:"product_url"`
	FullName       string    `db:"full_name" json:"full_name"`
	Email          string    `db:"email" json:"email"`
	Phone          *string   `db:"phone" json:"phone"`
	Company        *string   `db:"company" json:"company"`
	Quantity       *int64    `db:"quantity" json:"quantity"`
	Subject        *string   `db:"subject" json:"subject"`
	Message        string    `db:"message" json:"message"`
	TechnicalSpecs *string   `db:"technical_specs" json:"technical_specs"`
	Status         string    `db:"status" json:"status"`
	Priority       string    `db:"priority" json:"priority"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type EnquiryFilter struct {
	Status string
	Type   string
	Page   int
}

type HomepageItem struct {
	SectionKey string `db:"section_key" json:"section_key"`
	ItemID     int64  `db:"item_id" json:"item_id"`
	SortOrder  int    `db:"sort_order" json:"sort_order"`
}

const (
	SectionMainCategories    = "MAIN_CATEGORIES"
	SectionFeaturedSolutions = "FEATURED_SOLUTIONS"
	SectionSupplyOffers      = "SUPPLY_OFFERS"
)

type AdminUser struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}
