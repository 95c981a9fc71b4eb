package csvimport

// TemplateRecords are the example rows offered as a download. Both pass
// ValidateDomainRows.
func TemplateRecords() []ExamCenterRecord {
	lat1, lng1 := 18.5236, 73.8411
	lat2, lng2 := 12.9237, 77.4987
	cap1, cap2 := 500, 800
	return []ExamCenterRecord{
		{
			ExamType:     "NEET",
			State:        "Maharashtra",
			City:         "Pune",
			CenterName:   "Fergusson College Exam Centre",
			Address:      "FC Road, Shivajinagar, Pune",
			Pincode:      "411004",
			Latitude:     &lat1,
			Longitude:    &lng1,
			ContactPhone: "+91 20 2565 4321",
			ContactEmail: "exams@fergusson.edu",
			Capacity:     &cap1,
			Facilities:   []string{"Parking", "Wheelchair Access", "Drinking Water"},
			ExamYears:    []int{2024, 2025},
			IsActive:     true,
			Status:       "active",
			Landmark:     "Near Deccan Gymkhana",
		},
		{
			ExamType:     "JEE",
			State:        "Karnataka",
			City:         "Bengaluru",
			CenterName:   "RV College of Engineering",
			Address:      "Mysuru Road, RV Vidyaniketan Post, Bengaluru",
			Pincode:      "560059",
			Latitude:     &lat2,
			Longitude:    &lng2,
			ContactPhone: "080-6717-8000",
			ContactEmail: "admissions@rvce.edu.in",
			Capacity:     &cap2,
			Facilities:   []string{"Parking", "CCTV"},
			ExamYears:    []int{2025},
			IsActive:     true,
			Status:       "pending",
		},
	}
}

// TemplateCSV renders TemplateRecords as CSV.
func TemplateCSV() string {
	out, err := ExamCentersToCSV(TemplateRecords())
	if err != nil {
		return ""
	}
	return out
}
