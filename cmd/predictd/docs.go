package main

// General API documentation for swaggo. The served spec lives in
// internal/httpapi/swagger.go.
//
// @title           predictd API
// @version         1.0
// @description     Prediction service for the used-car price regressor and the heart-disease risk classifier.
//
// @BasePath  /
//
// @schemes http
