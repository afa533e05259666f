package core

import (
	"fmt"
	"strings"
)

// Category is the closed set of transaction and budget categories.
type Category string

const (
	HousingRent          Category = "housing_rent"
	HousingUtilities     Category = "housing_utilities"
	FoodGroceries        Category = "food_groceries"
	FoodDining           Category = "food_dining"
	TransportationGas    Category = "transportation_gas"
	TransportationPublic Category = "transportation_public"
	TransportationCar    Category = "transportation_car"
	HealthcareMedical    Category = "healthcare_medical"
	HealthcareInsurance  Category = "healthcare_insurance"
	EntertainmentMovies  Category = "entertainment_movies"
	EntertainmentHobbies Category = "entertainment_hobbies"
	ShoppingClothing     Category = "shopping_clothing"
	ShoppingElectronics  Category = "shopping_electronics"
	ShoppingOther        Category = "shopping_other"
	BillsPhone           Category = "bills_phone"
	BillsInternet        Category = "bills_internet"
	BillsSubscriptions   Category = "bills_subscriptions"
	EducationCourses     Category = "education_courses"
	EducationBooks       Category = "education_books"
	SavingsEmergency     Category = "savings_emergency"
	SavingsRetirement    Category = "savings_retirement"
	Other                Category = "other"

	IncomeSalary    Category = "income_salary"
	IncomeFreelance Category = "income_freelance"
	IncomeOther     Category = "income_other"
)

var expenseCategories = []Category{
	HousingRent, HousingUtilities, FoodGroceries, FoodDining,
	TransportationGas, TransportationPublic, TransportationCar,
	HealthcareMedical, HealthcareInsurance,
	EntertainmentMovies, EntertainmentHobbies,
	ShoppingClothing, ShoppingElectronics, ShoppingOther,
	BillsPhone, BillsInternet, BillsSubscriptions,
	EducationCourses, EducationBooks,
	SavingsEmergency, SavingsRetirement,
	Other,
}

var incomeCategories = []Category{IncomeSalary, IncomeFreelance, IncomeOther}

var categoryLabels = map[Category]string{
	HousingRent:          "Rent",
	HousingUtilities:     "Utilities",
	FoodGroceries:        "Groceries",
	FoodDining:           "Dining Out",
	TransportationGas:    "Gas",
	TransportationPublic: "Public Transport",
	TransportationCar:    "Car Expenses",
	HealthcareMedical:    "Medical",
	HealthcareInsurance:  "Insurance",
	EntertainmentMovies:  "Movies",
	EntertainmentHobbies: "Hobbies",
	ShoppingClothing:     "Clothing",
	ShoppingElectronics:  "Electronics",
	ShoppingOther:        "Shopping",
	BillsPhone:           "Phone",
	BillsInternet:        "Internet",
	BillsSubscriptions:   "Subscriptions",
	EducationCourses:     "Courses",
	EducationBooks:       "Books",
	SavingsEmergency:     "Emergency Fund",
	SavingsRetirement:    "Retirement",
	Other:                "Other",
	IncomeSalary:         "Salary",
	IncomeFreelance:      "Freelance",
	IncomeOther:          "Other Income",
}

// ExpenseCategories returns the expense categories in display order.
func ExpenseCategories() []Category {
	return append([]Category(nil), expenseCategories...)
}

// IncomeCategories returns the income categories in display order.
func IncomeCategories() []Category {
	return append([]Category(nil), incomeCategories...)
}

// ParseCategory validates s against the known categories.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, s)
	}
	return c, nil
}

// CategoryOrOther maps a stored value to its category, falling back to Other
// for values that are no longer known.
func CategoryOrOther(s string) Category {
	if c := Category(s); c.Valid() {
		return c
	}
	return Other
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c Category) IsIncome() bool {
	return c == IncomeSalary || c == IncomeFreelance || c == IncomeOther
}

func (c Category) IsExpense() bool {
	return c.Valid() && !c.IsIncome()
}

// Label returns the human readable name, or the raw value if unknown.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}
