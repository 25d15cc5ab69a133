// @title           Bitcoin Invoice Form API
// @version         1.0
// @description     API приема платежей по инвойсам через Coinsnap и BTCPay Server (документация Swagger).
// @contact.name    BIF support
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization

package main

import "bif_backend/internal/app"

func main() {
	app.Run()
}
