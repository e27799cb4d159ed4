package model

// Closed value sets shared by the feed, animal and ledger tables.
// They are stored as plain varchar columns; Valid() is the single gate
// used by services before anything reaches the database.

type FeedType string

const (
	FeedConcentrate FeedType = "concentrate"
	FeedRoughage    FeedType = "roughage"
	FeedSupplement  FeedType = "supplement"
	FeedOther       FeedType = "other"
)

func (f FeedType) Valid() bool {
	switch f {
	case FeedConcentrate, FeedRoughage, FeedSupplement, FeedOther:
		return true
	}
	return false
}

type Unit string

const (
	UnitKg    Unit = "kg"
	UnitTon   Unit = "ton"
	UnitBag   Unit = "bag"
	UnitLiter Unit = "liter"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitKg, UnitTon, UnitBag, UnitLiter:
		return true
	}
	return false
}

type Species string

const (
	SpeciesCattle  Species = "cattle"
	SpeciesSheep   Species = "sheep"
	SpeciesGoat    Species = "goat"
	SpeciesPoultry Species = "poultry"

	// SpeciesManual marks consumption records entered by hand. It is never a
	// valid policy or animal species.
	SpeciesManual Species = "manual"
)

// AllSpecies lists the species a consumption policy can target.
var AllSpecies = []Species{SpeciesCattle, SpeciesSheep, SpeciesGoat, SpeciesPoultry}

func (s Species) Valid() bool {
	switch s {
	case SpeciesCattle, SpeciesSheep, SpeciesGoat, SpeciesPoultry:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool { return g == GenderMale || g == GenderFemale }

type AnimalStatus string

const (
	AnimalActive   AnimalStatus = "active"
	AnimalSick     AnimalStatus = "sick"
	AnimalSold     AnimalStatus = "sold"
	AnimalDeceased AnimalStatus = "deceased"
)

func (s AnimalStatus) Valid() bool {
	switch s {
	case AnimalActive, AnimalSick, AnimalSold, AnimalDeceased:
		return true
	}
	return false
}

// Terminal reports whether the status can no longer change.
func (s AnimalStatus) Terminal() bool { return s == AnimalSold || s == AnimalDeceased }

type TransactionType string

const (
	TxIncome  TransactionType = "income"
	TxExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool { return t == TxIncome || t == TxExpense }

// Opposite is used when writing reversing entries.
func (t TransactionType) Opposite() TransactionType {
	if t == TxIncome {
		return TxExpense
	}
	return TxIncome
}

type Category string

const (
	CatAnimalPurchase Category = "animal_purchase"
	CatAnimalSale     Category = "animal_sale"
	CatFeedPurchase   Category = "feed_purchase"
	CatVeterinary     Category = "veterinary"
	CatMedicine       Category = "medicine"
	CatVaccination    Category = "vaccination"
	CatEquipment      Category = "equipment"
	CatMaintenance    Category = "maintenance"
	CatFuel           Category = "fuel"
	CatElectricity    Category = "electricity"
	CatWater          Category = "water"
	CatInsurance      Category = "insurance"
	CatTax            Category = "tax"
	CatLabor          Category = "labor"
	CatMilkSale       Category = "milk_sale"
	CatEggSale        Category = "egg_sale"
	CatManureSale     Category = "manure_sale"
	CatOtherIncome    Category = "other_income"
	CatOtherExpense   Category = "other_expense"
)

// AllCategories is ordered the way reports list them.
var AllCategories = []Category{
	CatAnimalPurchase, CatAnimalSale, CatFeedPurchase, CatVeterinary,
	CatMedicine, CatVaccination, CatEquipment, CatMaintenance, CatFuel,
	CatElectricity, CatWater, CatInsurance, CatTax, CatLabor, CatMilkSale,
	CatEggSale, CatManureSale, CatOtherIncome, CatOtherExpense,
}

func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// NaturalType is the entry type a category is booked under.
func (c Category) NaturalType() TransactionType {
	switch c {
	case CatAnimalSale, CatMilkSale, CatEggSale, CatManureSale, CatOtherIncome:
		return TxIncome
	}
	return TxExpense
}

// RequiresAnimal reports whether entries of this category must link an animal.
func (c Category) RequiresAnimal() bool {
	return c == CatAnimalSale || c == CatAnimalPurchase
}

// RequiresFeed reports whether entries of this category must link a feed lot
// and carry quantity / unit price.
func (c Category) RequiresFeed() bool { return c == CatFeedPurchase }
