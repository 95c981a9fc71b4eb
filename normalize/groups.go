package normalize

// Container column names as stored in class_requests and web_users.
const (
	AccountColumn     = "account"
	BasicColumn       = "basic"
	ContactColumn     = "contact"
	EducationColumn   = "education"
	ApplicationColumn = "application_details"
	AdminFilledColumn = "admin_filled"
	PaymentColumn     = "final_fee_payment"
)

// Snake-case names come first in every alias list.

var AccountGroup = Group{
	Name:       "account",
	Containers: []string{AccountColumn, "account_info", "account_details"},
	Schema:     accountSchema,
	Fields: []FieldMapping{
		field("account_type", "accountType", "type"),
		field("firebase_uid", "firebaseUid", "uid"),
		field("providers", "provider_ids"),
		fieldWith(toBool, "phone_auth_used", "phoneAuthUsed"),
		field("created_at", "createdAt", "creation_time"),
		field("last_sign_in", "lastSignIn", "last_sign_in_time"),
		field("display_name", "displayName"),
		field("account_email", "accountEmail").inContainer("email"),
	},
}

var BasicGroup = Group{
	Name:       "basic",
	Containers: []string{BasicColumn, "basic_info", "basicInfo"},
	Schema:     basicSchema,
	Fields: []FieldMapping{
		field("student_name", "studentName", "full_name", "fullName").inContainer("name"),
		field("father_name", "fatherName", "fathers_name"),
		field("gender"),
		field("dob", "date_of_birth", "dateOfBirth"),
	},
}

var ContactGroup = Group{
	Name:       "contact",
	Containers: []string{ContactColumn, "contact_info", "contactInfo"},
	Schema:     contactSchema,
	Fields: []FieldMapping{
		field("email", "emailAddress"),
		field("phone", "phone_number", "phoneNumber", "mobile"),
		field("city"),
		field("state"),
		field("country"),
		field("zip_code", "zipCode", "pincode", "postal_code"),
		field("address"),
	},
}

var EducationGroup = Group{
	Name:       "education",
	Containers: []string{EducationColumn, "education_details"},
	Schema:     educationSchema,
	Fields: []FieldMapping{
		field("qualification", "highest_qualification"),
		field("institution", "school", "college"),
		field("board"),
		field("passing_year", "passingYear", "year_of_passing"),
		field("percentage", "marks"),
		field("current_class", "currentClass", "class"),
	},
}

var ApplicationGroup = Group{
	Name:       "application",
	Containers: []string{ApplicationColumn, "applicationDetails", "application"},
	Schema:     applicationSchema,
	Fields: []FieldMapping{
		fieldWith(toBool, "application_submitted", "applicationSubmitted", "submitted"),
		field("app_submitted_date_time", "appSubmittedDateTime", "submitted_at"),
		fieldWith(approvalStatus, "application_admin_approval", "applicationAdminApproval", "admin_approval"),
		field("approved_at", "approvedAt"),
		field("approved_by", "approvedBy"),
	},
}

var AdminFilledGroup = Group{
	Name:       "admin_filled",
	Containers: []string{AdminFilledColumn, "adminFilled", "admin_details"},
	Schema:     adminFilledSchema,
	Fields: []FieldMapping{
		field("final_course_Name", "final_course_name", "finalCourseName", "course_name"),
		field("course_duration", "courseDuration"),
		field("payment_options", "paymentOptions"),
		fieldWith(toNumber, "total_fees", "totalFees"),
		fieldWith(toNumber, "registration_fees", "registrationFees"),
		fieldWith(toNumber, "first_installment", "firstInstallment"),
		fieldWith(toNumber, "second_installment", "secondInstallment"),
		fieldWith(toNumber, "discount"),
		fieldWith(toNumber, "remaining_fees", "remainingFees"),
		field("course_start_date", "courseStartDate"),
		field("course_end_date", "courseEndDate"),
		field("due_date", "dueDate"),
	},
}

var PaymentGroup = Group{
	Name:       "payment",
	Containers: []string{PaymentColumn, "payment", "payment_details"},
	Schema:     paymentSchema,
	Fields: []FieldMapping{
		field("payment_status", "paymentStatus", "status"),
		field("payment_method", "paymentMethod", "method"),
		field("transaction_id", "transactionId", "payment_id"),
		field("order_id", "orderId"),
		fieldWith(toNumber, "amount"),
		field("currency"),
		fieldWith(toBool, "verified", "is_verified"),
		fieldWith(toSequence, "payment_history", "paymentHistory", "history"),
	},
}

// DefaultGroups is the order the assembler applies groups in.
func DefaultGroups() []Group {
	return []Group{
		AccountGroup,
		BasicGroup,
		ContactGroup,
		EducationGroup,
		ApplicationGroup,
		AdminFilledGroup,
		PaymentGroup,
	}
}
