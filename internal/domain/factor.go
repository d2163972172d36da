package domain

// factorLabels maps NYPD contributing-factor values to the short labels shown
// on the dashboard. Values not listed keep their original text.
var factorLabels = map[string]string{
	"Accelerator Defective":                                 "Accel Defect",
	"Aggressive Driving/Road Rage":                          "Aggressive/Road Rage",
	"Alcohol Involvement":                                   "Alcohol",
	"Animals Action":                                        "Animals",
	"Backing Unsafely":                                      "Backing Unsafe",
	"Brakes Defective":                                      "Brake Defect",
	"Cell Phone (hand-Held)":                                "Phone (Handheld)",
	"Cell Phone (hands-free)":                               "Phone (Hands-free)",
	"Driver Inattention/Distraction":                        "Driver Distracted",
	"Driver Inexperience":                                   "Inexperienced",
	"Driverless/Runaway Vehicle":                            "Runaway Vehicle",
	"Drugs (illegal)":                                       "Drugs",
	"Eating or Drinking":                                    "Eating/Drinking",
	"Failure to Keep Right":                                 "Didn't Keep Right",
	"Failure to Yield Right-of-Way":                         "Didn't Yield",
	"Fatigued/Drowsy":                                       "Fatigued",
	"Fell Asleep":                                           "Fell Asleep",
	"Following Too Closely":                                 "Tailgating",
	"Glare":                                                 "Glare",
	"Headlights Defective":                                  "Headlight Defect",
	"Illnes":                                                "Illness",
	"Lane Marking Improper/Inadequate":                      "Bad Lane Markings",
	"Listening/Using Headphones":                            "Using Headphones",
	"Lost Consciousness":                                    "Lost Consciousness",
	"Obstruction/Debris":                                    "Obstruction",
	"Other Electronic Device":                               "Other Device",
	"Other Lighting Defects":                                "Lighting Defect",
	"Other Vehicular":                                       "Other Vehicular",
	"Outside Car Distraction":                               "Outside Distract.",
	"Oversized Vehicle":                                     "Oversized",
	"Passenger Distraction":                                 "Passenger Distract.",
	"Passing Too Closely":                                   "Close Passing",
	"Passing or Lane Usage Improper":                        "Bad Lane Use",
	"Pavement Defective":                                    "Pavement Defect",
	"Pavement Slippery":                                     "Slippery Pavement",
	"Pedestrian/Bicyclist/Other Pedestrian Error/Confusion": "Ped/Bike Conf.",
	"Physical Disability":                                   "Disability",
	"Prescription Medication":                               "Medication",
	"Reaction to Uninvolved Vehicle":                        "Reacted to Other",
	"Shoulders Defective/Improper":                          "Bad Shoulder",
	"Steering Failure":                                      "Steering Failure",
	"Texting":                                               "Texting",
	"Tinted Windows":                                        "Tinted",
	"Tire Failure/Inadequate":                               "Tire Failure",
	"Tow Hitch Defective":                                   "Tow Hitch",
	"Traffic Control Device Improper/Non-Working":           "Bad Signal",
	"Traffic Control Disregarded":                           "Ignored Signal",
	"Turning Improperly":                                    "Bad Turn",
	"Unsafe Lane Changing":                                  "Unsafe Lane Change",
	"Unsafe Speed":                                          "Unsafe Speed",
	"Using On Board Navigation Device":                      "Using Nav",
	"Vehicle Vandalism":                                     "Vandalism",
	"View Obstructed/Limited":                               "View Blocked",
	"Windshield Inadequate":                                 "Bad Windshield",
}

// ShortenFactor returns the dashboard label for a contributing factor.
// Empty input stays empty; unmapped values are returned unchanged.
func ShortenFactor(factor string) string {
	if factor == "" {
		return ""
	}
	if short, ok := factorLabels[factor]; ok {
		return short
	}
	return factor
}
