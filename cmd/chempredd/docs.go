package main

// General API documentation for swaggo. Run `swag init` to generate docs.
//
// @title           chempredd API
// @version         1.0
// @description     HTTP API for molecular property prediction over pretrained sparse feed-forward models.
//
// @contact.name   chempredd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
