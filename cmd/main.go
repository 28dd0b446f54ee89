package main

import "wordnest/internal/app"

// @title           WordNest API
// @version         1.0
// @description     Сервис изучения английских слов: словарь, тесты, наставничество.

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

func main() {
	app.Run()
}
