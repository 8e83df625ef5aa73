package wizard

var UserSteps = []Step{
	{Title: "Personal details", Fields: []string{"FirstName", "LastName", "Email", "Phone"}},
	{Title: "Address", Fields: []string{"Address.Street", "Address.City", "Address.State", "Address.Zip"}},
	{Title: "Access", Fields: []string{"Role", "Password", "ConfirmPassword"}},
}

var CarrierSteps = []Step{
	{Title: "Company", Fields: []string{"CompanyName", "MCNumber", "USDOTNumber"}},
	{Title: "Contact", Fields: []string{"ContactName", "Email", "Phone", "Address.Street", "Address.City", "Address.State", "Address.Zip"}},
	{Title: "Terms", Fields: []string{"InsuranceName", "PaymentTerms"}},
}
