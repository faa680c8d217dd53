package models

import "github.com/galaplate/dbdeploy/database"

func init() {
	Register("payments", Payments)
}

// Payments is the one-time purchase application: orders paid through the
// payment gateway and the download tokens issued once an order is paid.
func Payments() *database.Manifest {
	return database.NewManifest().
		Create("orders", func(table *database.Blueprint) {
			table.ID()
			// gateway limit for MerchantTradeNo
			table.String("merchant_trade_no", 20).NotNullable()
			table.String("app_code", 32).NotNullable().Default("app")
			table.String("product_code", 64)
			table.String("item_name", 200).NotNullable().Default("One-time purchase")
			table.Integer("amount").NotNullable().Default(50)
			// created, paid or failed
			table.String("status", 16).NotNullable().Default("created")
			table.Text("resume_url")
			table.Text("payload_json")

			table.Boolean("checkmac_valid").NotNullable().Default(false)
			table.Integer("rtn_code")
			table.String("rtn_msg", 200)
			table.String("payment_type", 50)
			table.String("ecpay_trade_no", 32)
			table.Boolean("is_simulated").NotNullable().Default(false)

			table.Timestamp("created_at").NotNullable().Default(database.CurrentTimestamp)
			table.Timestamp("paid_at")
			table.Timestamp("delivered_at")

			// unique lookup index, not a column constraint
			table.UniqueIndex("merchant_trade_no")
		}).
		Create("download_tokens", func(table *database.Blueprint) {
			table.String("token", 128).Primary()
			table.ForeignID("order_id").NotNullable()
			table.Text("file_path").NotNullable()
			table.Timestamp("created_at").NotNullable().Default(database.CurrentTimestamp)
			table.Timestamp("expires_at").NotNullable()

			table.Index("order_id")
			table.Foreign("order_id").References("id").On("orders").Finish()
		})
}
