package seeders

import (
	"classdesk_go/database"
	"classdesk_go/models"
	"classdesk_go/services"
	"context"
	"log"

	"github.com/bytedance/sonic"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SeedAll runs all seeders. Each one skips a table that already has rows.
func SeedAll(ctx context.Context, db *gorm.DB) {
	log.Println("Starting database seeding...")

	SeedClassRequests(db)
	SeedWebUsers(db)
	if err := services.NewExamCenterService(database.NewExamCenterStore(db), 1).Seed(ctx); err != nil {
		log.Printf("Exam center seeding failed: %v", err)
	}

	log.Println("Database seeding completed successfully!")
}

func str(s string) *string { return &s }

// jsonString stores a JSON document as a jsonb string, the way the first
// version of the public site wrote its containers.
func jsonString(doc string) datatypes.JSON {
	quoted, err := sonic.MarshalString(doc)
	if err != nil {
		return nil
	}
	return datatypes.JSON(quoted)
}

// SeedClassRequests inserts rows covering each historical container shape.
func SeedClassRequests(db *gorm.DB) {
	var count int64
	db.Model(&models.ClassRequest{}).Count(&count)
	if count > 0 {
		log.Println("Class requests already seeded, skipping...")
		return
	}

	requests := []models.ClassRequest{
		{
			Account: datatypes.JSON(`{"account_type":"student","providers":["google.com"],"photo_url":"https://lh3.googleusercontent.com/a/asha"}`),
			Basic:   datatypes.JSON(`{"student_name":"Asha Kulkarni","gender":"F","dob":"2007-03-14"}`),
			Contact: datatypes.JSON(`{"email":"asha@example.com","phone":"+91 98220 11111","city":"Pune","state":"Maharashtra"}`),
			ApplicationDetails: datatypes.JSON(`{"application_submitted":true,"app_submitted_date_time":"2025-04-02T09:30:00Z","application_admin_approval":""}`),
			AdminFilled:        datatypes.JSON(`{"final_course_Name":"NEET Foundation","total_fees":"₹ 45,000","discount":"5000"}`),
			FinalFeePayment:    datatypes.JSON(`{"payment_status":"partial","amount":20000,"payment_history":[{"amount":20000,"date":"2025-04-05"}]}`),
		},
		{
			Basic:              jsonString(`{"studentName":"Rohan Mehta","fatherName":"Vikram Mehta"}`),
			Contact:            jsonString(`{"emailAddress":"rohan@example.com","mobile":"9876543210"}`),
			ApplicationDetails: datatypes.JSON(`{"applicationSubmitted":"yes","applicationAdminApproval":"Approved","approvedBy":"admin@classdesk.test"}`),
			FinalFeePayment:    datatypes.JSON(`{"paymentStatus":"paid","paymentHistory":{"2":{"amount":"15,000"},"1":{"amount":"10,000"}}}`),
		},
		{
			// Predates the containers.
			StudentName: str("Meera Iyer"),
			Email:       str("meera@example.com"),
			Phone:       str("044-2345-6789"),
			Basic:       datatypes.JSON(`"{broken"`),
		},
	}

	for i := range requests {
		if err := db.Create(&requests[i]).Error; err != nil {
			log.Printf("Error seeding class request %d: %v", i, err)
		}
	}
	log.Println("Class requests seeded successfully")
}

func SeedWebUsers(db *gorm.DB) {
	var count int64
	db.Model(&models.WebUser{}).Count(&count)
	if count > 0 {
		log.Println("Web users already seeded, skipping...")
		return
	}

	users := []models.WebUser{
		{
			Account:     datatypes.JSON(`{"providers":["password"],"avatar_path":"avatars/seed/admin.webp"}`),
			DisplayName: str("ClassDesk Admin"),
			Email:       str("admin@classdesk.test"),
			Role:        "admin",
		},
		{
			Account:     jsonString(`{"providers":"[\"google.com\",\"phone\"]","phone_auth_used":"true"}`),
			Basic:       datatypes.JSON(`{"full_name":"Kiran Rao"}`),
			Contact:     datatypes.JSON(`{"phone_number":"9000012345","city":"Hyderabad"}`),
			Email:       str("kiran@example.com"),
			Role:        "student",
		},
	}

	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			log.Printf("Error seeding web user %d: %v", i, err)
		}
	}
	log.Println("Web users seeded successfully")
}
