// Package http provides HTTP handlers and middleware for the device scheduler API.
//
// The router exposes the following endpoints:
//   - GET /users, POST /users, DELETE /users/{id}: user management exchanging the
//     `userDTO` payload ({"id","name"}) defined in user_handler.go.
//   - GET /devices, POST /devices, GET/PUT/DELETE /devices/{id}: device inventory
//     exchanging `deviceDTO`. PUT applies only the fields present in the body.
//   - GET /devices/{id}/availability?start=&end=: reports whether a device is free
//     and lists the blocking reservations.
//   - GET /reservations[?device_id=], POST /reservations: append-only bookings.
//     Instants are "YYYY-MM-DDTHH:MM" in the configured time zone or RFC 3339.
//   - GET/PUT /devices/{id}/maintenance[?until=YYYY-MM-DD]: the maintenance
//     schedule of a device, its next date and an optional preview of upcoming dates.
//   - GET /maintenance/overview, GET /maintenance/quarter-cost: next maintenance per
//     device and the cost due in the current calendar quarter.
//   - GET /healthz: store liveness.
//
// Errors are reported as {"error_code","message","errors","conflicts"} with
// German messages. Validation problems map to 422, overlapping reservations and
// duplicate ids to 409, unknown records to 404 and malformed bodies to 400.
package http
