package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Scheduler API",
        "description": "Course request auto-scheduler: requests, scheduler runs, enrollments and timetable templates.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "ScheduleRequests",
            "description": "Course requests awaiting placement"
        },
        {
            "name": "Scheduler",
            "description": "Synchronous and background scheduler runs"
        },
        {
            "name": "Templates",
            "description": "Reusable weekly timetable patterns"
        },
        {
            "name": "StudentSchedules",
            "description": "Enrollment rows and seat counters"
        }
    ],
    "paths": {
        "/schedule-requests": {
            "get": {
                "tags": [
                    "ScheduleRequests"
                ],
                "summary": "List schedule requests",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "academic_year_id",
                        "in": "query",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "student_id",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "course_id",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "PENDING",
                            "FULFILLED",
                            "UNFILLED",
                            "CANCELLED"
                        ]
                    },
                    {
                        "name": "campus_id",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Missing scope or academic year",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "ScheduleRequests"
                ],
                "summary": "Create schedule request",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateScheduleRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Pending request already exists",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule-requests/mass": {
            "post": {
                "tags": [
                    "ScheduleRequests"
                ],
                "summary": "Create schedule requests for many students",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/MassCreateScheduleRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule-requests/{id}": {
            "get": {
                "tags": [
                    "ScheduleRequests"
                ],
                "summary": "Get schedule request",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "put": {
                "tags": [
                    "ScheduleRequests"
                ],
                "summary": "Update, cancel or reset a schedule request",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateScheduleRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Invalid transition",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "ScheduleRequests"
                ],
                "summary": "Delete schedule request",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/schedule-requests/scheduler/run": {
            "post": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Run the course request scheduler",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RunSchedulerRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "A run is already in progress for this scope",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule-requests/scheduler/jobs": {
            "post": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Queue a background scheduler run",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RunSchedulerRequest"
                        }
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule-requests/scheduler/jobs/{id}": {
            "get": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Poll a background scheduler run",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Scheduler"
                ],
                "summary": "Cancel a background scheduler run",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Job already finished",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule-requests/templates": {
            "get": {
                "tags": [
                    "Templates"
                ],
                "summary": "List timetable templates",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Templates"
                ],
                "summary": "Create timetable template",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateTemplateRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule-requests/templates/apply": {
            "post": {
                "tags": [
                    "Templates"
                ],
                "summary": "Apply a template to course periods",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ApplyTemplateRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/schedule-requests/templates/from-section": {
            "post": {
                "tags": [
                    "Templates"
                ],
                "summary": "Capture a section timetable as a template",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/TemplateFromSectionRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/student-schedules": {
            "get": {
                "tags": [
                    "StudentSchedules"
                ],
                "summary": "List a student's schedule",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "student_id",
                        "in": "query",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "academic_year_id",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "active_only",
                        "in": "query",
                        "type": "boolean"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "StudentSchedules"
                ],
                "summary": "Enroll a student into a course period",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/EnrollRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Full, conflicting or duplicate",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/student-schedules/drop": {
            "post": {
                "tags": [
                    "StudentSchedules"
                ],
                "summary": "Drop a student from a course period",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/DropRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/student-schedules/mass": {
            "post": {
                "tags": [
                    "StudentSchedules"
                ],
                "summary": "Enroll many students",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/MassEnrollRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/student-schedules/mass-drop": {
            "post": {
                "tags": [
                    "StudentSchedules"
                ],
                "summary": "Drop many students",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/MassDropRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/course-periods/{id}/recompute-seats": {
            "post": {
                "tags": [
                    "StudentSchedules"
                ],
                "summary": "Recompute the filled seats of a course period",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "CreateScheduleRequest": {
            "type": "object",
            "properties": {
                "student_id": {
                    "type": "string"
                },
                "course_id": {
                    "type": "string"
                },
                "academic_year_id": {
                    "type": "string"
                },
                "marking_period_id": {
                    "type": "string"
                },
                "with_teacher_id": {
                    "type": "string"
                },
                "not_teacher_id": {
                    "type": "string"
                },
                "with_period_id": {
                    "type": "string"
                },
                "not_period_id": {
                    "type": "string"
                },
                "priority": {
                    "type": "integer"
                },
                "campus_id": {
                    "type": "string"
                }
            },
            "required": [
                "student_id",
                "course_id",
                "academic_year_id"
            ]
        },
        "UpdateScheduleRequest": {
            "type": "object",
            "properties": {
                "marking_period_id": {
                    "type": "string"
                },
                "with_teacher_id": {
                    "type": "string"
                },
                "not_teacher_id": {
                    "type": "string"
                },
                "with_period_id": {
                    "type": "string"
                },
                "not_period_id": {
                    "type": "string"
                },
                "priority": {
                    "type": "integer"
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "PENDING",
                        "CANCELLED"
                    ]
                }
            }
        },
        "MassCreateScheduleRequest": {
            "type": "object",
            "properties": {
                "student_ids": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "course_id": {
                    "type": "string"
                },
                "academic_year_id": {
                    "type": "string"
                },
                "marking_period_id": {
                    "type": "string"
                },
                "priority": {
                    "type": "integer"
                },
                "campus_id": {
                    "type": "string"
                }
            },
            "required": [
                "student_ids",
                "course_id",
                "academic_year_id"
            ]
        },
        "RunSchedulerRequest": {
            "type": "object",
            "properties": {
                "academic_year_id": {
                    "type": "string"
                },
                "campus_id": {
                    "type": "string"
                },
                "marking_period_id": {
                    "type": "string"
                },
                "course_id": {
                    "type": "string"
                },
                "respect_teacher_availability": {
                    "type": "boolean"
                },
                "respect_room_capacity": {
                    "type": "boolean"
                },
                "respect_gender_restrictions": {
                    "type": "boolean"
                },
                "use_priority_ordering": {
                    "type": "boolean"
                },
                "strict_preferences": {
                    "type": "boolean"
                }
            },
            "required": [
                "academic_year_id"
            ]
        },
        "TemplateEntryRequest": {
            "type": "object",
            "properties": {
                "day_of_week": {
                    "type": "integer",
                    "minimum": 0,
                    "maximum": 7
                },
                "period_id": {
                    "type": "string"
                },
                "room_id": {
                    "type": "string"
                }
            },
            "required": [
                "period_id"
            ]
        },
        "CreateTemplateRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "campus_id": {
                    "type": "string"
                },
                "entries": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/TemplateEntryRequest"
                    }
                }
            },
            "required": [
                "name",
                "entries"
            ]
        },
        "ApplyTemplateRequest": {
            "type": "object",
            "properties": {
                "template_id": {
                    "type": "string"
                },
                "course_period_ids": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            },
            "required": [
                "template_id",
                "course_period_ids"
            ]
        },
        "TemplateFromSectionRequest": {
            "type": "object",
            "properties": {
                "section_id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                }
            },
            "required": [
                "section_id",
                "name"
            ]
        },
        "EnrollRequest": {
            "type": "object",
            "properties": {
                "student_id": {
                    "type": "string"
                },
                "course_id": {
                    "type": "string"
                },
                "course_period_id": {
                    "type": "string"
                },
                "academic_year_id": {
                    "type": "string"
                },
                "start_date": {
                    "type": "string",
                    "format": "date-time"
                },
                "scheduler_lock": {
                    "type": "boolean"
                }
            },
            "required": [
                "student_id",
                "course_id",
                "course_period_id",
                "academic_year_id"
            ]
        },
        "DropRequest": {
            "type": "object",
            "properties": {
                "student_id": {
                    "type": "string"
                },
                "course_period_id": {
                    "type": "string"
                },
                "end_date": {
                    "type": "string",
                    "format": "date-time"
                }
            },
            "required": [
                "student_id",
                "course_period_id"
            ]
        },
        "MassEnrollRequest": {
            "type": "object",
            "properties": {
                "student_ids": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "course_id": {
                    "type": "string"
                },
                "course_period_id": {
                    "type": "string"
                },
                "academic_year_id": {
                    "type": "string"
                },
                "start_date": {
                    "type": "string",
                    "format": "date-time"
                }
            },
            "required": [
                "student_ids",
                "course_id",
                "course_period_id",
                "academic_year_id"
            ]
        },
        "MassDropRequest": {
            "type": "object",
            "properties": {
                "student_ids": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "course_period_id": {
                    "type": "string"
                },
                "end_date": {
                    "type": "string",
                    "format": "date-time"
                }
            },
            "required": [
                "student_ids",
                "course_period_id"
            ]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean"
                },
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
