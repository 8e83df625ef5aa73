package model

import "time"

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country,omitempty"`
}

type Carrier struct {
	ID            string    `json:"_id"`
	CompanyName   string    `json:"companyName"`
	MCNumber      string    `json:"mcNumber"`
	USDOTNumber   string    `json:"usdotNumber"`
	ContactName   string    `json:"contactName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       Address   `json:"address"`
	InsuranceName string    `json:"insuranceName,omitempty"`
	PaymentTerms  string    `json:"paymentTerms"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Customer struct {
	ID             string    `json:"_id"`
	CompanyName    string    `json:"companyName"`
	ContactName    string    `json:"contactName"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	BillingAddress Address   `json:"billingAddress"`
	PaymentTerms   string    `json:"paymentTerms"`
	CreditLimit    float64   `json:"creditLimit"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Facility is the shared shape of shippers and consignees.
type Facility struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	Address       Address   `json:"address"`
	ContactName   string    `json:"contactName"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email,omitempty"`
	ShippingHours string    `json:"shippingHours,omitempty"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Shipper = Facility

type Consignee = Facility

type Truck struct {
	ID            string    `json:"_id"`
	TruckNumber   string    `json:"truckNumber"`
	CarrierID     string    `json:"carrierId"`
	Equipment     string    `json:"equipment"`
	Location      string    `json:"location"`
	AvailableFrom time.Time `json:"availableFrom"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Quote struct {
	ID          string    `json:"_id"`
	CustomerID  string    `json:"customerId"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Equipment   string    `json:"equipment"`
	Rate        float64   `json:"rate"`
	Status      string    `json:"status"`
	ValidUntil  time.Time `json:"validUntil"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Broker struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Commission float64   `json:"commission"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

type LoadStatus string

const (
	LoadPending    LoadStatus = "pending"
	LoadBooked     LoadStatus = "booked"
	LoadDispatched LoadStatus = "dispatched"
	LoadInTransit  LoadStatus = "in_transit"
	LoadDelivered  LoadStatus = "delivered"
	LoadCancelled  LoadStatus = "cancelled"
)

var LoadStatuses = []LoadStatus{LoadPending, LoadBooked, LoadDispatched, LoadInTransit, LoadDelivered, LoadCancelled}

type Load struct {
	ID           string     `json:"_id"`
	LoadNumber   string     `json:"loadNumber"`
	Status       LoadStatus `json:"status"`
	CustomerID   string     `json:"customerId"`
	CarrierID    string     `json:"carrierId,omitempty"`
	ShipperID    string     `json:"shipperId"`
	ConsigneeID  string     `json:"consigneeId"`
	Commodity    string     `json:"commodity"`
	Weight       float64    `json:"weight"`
	Rate         float64    `json:"rate"`
	PickupDate   time.Time  `json:"pickupDate"`
	DeliveryDate time.Time  `json:"deliveryDate"`
	PostedAt     time.Time  `json:"postedAt"`
	Documents    []Document `json:"documents,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Age is how long the load has been posted.
func (l Load) Age(now time.Time) time.Duration {
	if l.PostedAt.IsZero() {
		return 0
	}
	return now.Sub(l.PostedAt)
}

type Document struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}
