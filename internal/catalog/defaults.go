package catalog

import "medbook/internal/models"

// DefaultData returns the compiled-in reference data.
func DefaultData() *Data {
	return &Data{
		Departments: []models.Department{
			{ID: "dept1", Name: "Cardiology", IconKey: "heart-pulse", Description: "Heart and cardiovascular system specialists"},
			{ID: "dept2", Name: "Neurology", IconKey: "brain", Description: "Brain, spinal cord and nervous system specialists"},
			{ID: "dept3", Name: "Orthopedics", IconKey: "bone", Description: "Bone, joint and musculoskeletal specialists"},
			{ID: "dept4", Name: "Pediatrics", IconKey: "baby", Description: "Medical care for infants, children and adolescents"},
			{ID: "dept5", Name: "Dermatology", IconKey: "scan-face", Description: "Skin, hair and nail specialists"},
			{ID: "dept6", Name: "Ophthalmology", IconKey: "eye", Description: "Eye and vision specialists"},
		},
		Doctors: []models.Doctor{
			{ID: "doc1", Name: "Dr. John Smith", DepartmentID: "dept1", Specialization: "Interventional Cardiology", ExperienceLabel: "15 years", ImageRef: "/placeholder.svg"},
			{ID: "doc2", Name: "Dr. Emily Johnson", DepartmentID: "dept1", Specialization: "Cardiac Electrophysiology", ExperienceLabel: "12 years", ImageRef: "/placeholder.svg"},
			{ID: "doc3", Name: "Dr. Michael Chen", DepartmentID: "dept2", Specialization: "Neurological Surgery", ExperienceLabel: "20 years", ImageRef: "/placeholder.svg"},
			{ID: "doc4", Name: "Dr. Sarah Williams", DepartmentID: "dept2", Specialization: "Clinical Neurology", ExperienceLabel: "10 years", ImageRef: "/placeholder.svg"},
			{ID: "doc5", Name: "Dr. Robert Lee", DepartmentID: "dept3", Specialization: "Joint Replacement", ExperienceLabel: "18 years", ImageRef: "/placeholder.svg"},
			{ID: "doc6", Name: "Dr. Linda Davis", DepartmentID: "dept3", Specialization: "Sports Medicine", ExperienceLabel: "9 years", ImageRef: "/placeholder.svg"},
			{ID: "doc7", Name: "Dr. David Wilson", DepartmentID: "dept4", Specialization: "General Pediatrics", ExperienceLabel: "14 years", ImageRef: "/placeholder.svg"},
			{ID: "doc8", Name: "Dr. Jennifer Thomas", DepartmentID: "dept4", Specialization: "Pediatric Neurology", ExperienceLabel: "11 years", ImageRef: "/placeholder.svg"},
			{ID: "doc9", Name: "Dr. James Miller", DepartmentID: "dept5", Specialization: "Clinical Dermatology", ExperienceLabel: "16 years", ImageRef: "/placeholder.svg"},
			{ID: "doc10", Name: "Dr. Maria Rodriguez", DepartmentID: "dept5", Specialization: "Cosmetic Dermatology", ExperienceLabel: "8 years", ImageRef: "/placeholder.svg"},
			{ID: "doc11", Name: "Dr. Richard Brown", DepartmentID: "dept6", Specialization: "Retina Specialist", ExperienceLabel: "22 years", ImageRef: "/placeholder.svg"},
			{ID: "doc12", Name: "Dr. Elizabeth Taylor", DepartmentID: "dept6", Specialization: "Cornea Specialist", ExperienceLabel: "13 years", ImageRef: "/placeholder.svg"},
		},
	}
}
