package sheetmatch

// Target pairs a canonical workbook tab label with its destination relation.
type Target struct {
	Label    string
	Relation string
}

// DailyTargets maps the daily raw-data workbook tabs to warehouse relations.
var DailyTargets = []Target{
	{Label: "HospBedAvailable-Regional", Relation: "Regional_Bed_Availability"},
	{Label: "Hospitalization from Hospitals", Relation: "Hospitalization_from_Hospitals"},
	{Label: "Hospital COVID Census", Relation: "Hospital_COVID_Census"},
	{Label: "LTC Facilities", Relation: "LTC_Facilities"},
	{Label: "TestingByDate (Test Date)", Relation: "TestingByDate"},
}

// WeeklyTargets maps the weekly raw-data workbook tabs to warehouse relations.
var WeeklyTargets = []Target{
	{Label: "AgeLast2Weeks", Relation: "AgeLast2Weeks"},
	{Label: "CountyDeathsLast2Weeks", Relation: "CountyDeathsLast2Weeks"},
	{Label: "County_Weekly", Relation: "County_Weekly"},
	{Label: "LTCF", Relation: "LTCF"},
	{Label: "ALR", Relation: "ALR"},
}
