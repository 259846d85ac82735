package services

// Services defined in this package:
// - AuthService: Handles registration, login, token refresh and email verification
// - UserService: Handles profile and chat platform account linking
// - CourseService: Handles courses and their class schedules
// - EnrollmentService: Handles enrollment requests and decisions
// - ReminderService: Delivers upcoming-class reminder emails
